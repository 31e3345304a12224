//go:build integration

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/ecosphere/internal/app/models"
	"github.com/yigit/ecosphere/internal/app/models/dto"
	"github.com/yigit/ecosphere/internal/app/repositories"
	"github.com/yigit/ecosphere/internal/db"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
	"github.com/yigit/ecosphere/internal/pkg/websocket"
	"github.com/yigit/ecosphere/internal/testutil"
)

type integrationEnv struct {
	db        *db.PostgresDB
	repos     *repositories.Repositories
	publisher *fakePublisher

	notifications NotificationService
	community     CommunityService
	catalog       CatalogService
	messaging     MessagingService
}

func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()
	database := testutil.Postgres(t)
	repos := repositories.NewRepositories(database.Pool)
	publisher := &fakePublisher{}
	lgr := zerolog.Nop()

	notifications := NewNotificationService(repos.NotificationRepository, database, publisher, lgr)
	return &integrationEnv{
		db:            database,
		repos:         repos,
		publisher:     publisher,
		notifications: notifications,
		community: NewCommunityService(repos.PostRepository, repos.CommentRepository, repos.UpvoteRepository,
			repos.UserRepository, notifications, database, nil, lgr),
		catalog: NewCatalogService(repos.CategoryRepository, repos.ListingRepository, repos.WishlistRepository,
			repos.UserRepository, database, nil, lgr),
		messaging: NewMessagingService(repos.ConversationRepository, repos.MessageRepository,
			repos.UserRepository, database, publisher, lgr),
	}
}

func TestIntegration_Services(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()

	t.Run("upvote toggles and notifies only on insert", func(t *testing.T) {
		author := testutil.CreateUser(t, env.repos, models.RoleProducer)
		voter := testutil.CreateUser(t, env.repos, models.RoleConsumer)
		post := testutil.CreatePost(t, env.repos, author.ID, "Compost tips", "compost-tips")

		resp, err := env.community.ToggleUpvote(ctx, post.ID, voter.ID)
		require.NoError(t, err)
		assert.Equal(t, "added", resp.Action)
		assert.Equal(t, int64(1), resp.TotalUpvotes)

		resp, err = env.community.ToggleUpvote(ctx, post.ID, voter.ID)
		require.NoError(t, err)
		assert.Equal(t, "removed", resp.Action)
		assert.Equal(t, int64(0), resp.TotalUpvotes)

		resp, err = env.community.ToggleUpvote(ctx, post.ID, voter.ID)
		require.NoError(t, err)
		assert.Equal(t, "added", resp.Action)
		assert.Equal(t, int64(1), resp.TotalUpvotes)

		list, err := env.notifications.List(ctx, author.ID)
		require.NoError(t, err)
		require.Len(t, list.Notifications, 2)
		assert.Equal(t, int64(2), list.UnreadCount)
		assert.Contains(t, list.Notifications[0].Message, voter.Username+" upvoted your post 'Compost tips'")
	})

	t.Run("self upvote does not notify", func(t *testing.T) {
		author := testutil.CreateUser(t, env.repos, models.RoleRecycler)
		post := testutil.CreatePost(t, env.repos, author.ID, "Glass sorting", "glass-sorting")

		_, err := env.community.ToggleUpvote(ctx, post.ID, author.ID)
		require.NoError(t, err)

		list, err := env.notifications.List(ctx, author.ID)
		require.NoError(t, err)
		assert.Empty(t, list.Notifications)
	})

	t.Run("upvote on missing post", func(t *testing.T) {
		voter := testutil.CreateUser(t, env.repos, models.RoleConsumer)
		_, err := env.community.ToggleUpvote(ctx, 987654, voter.ID)
		assert.True(t, errors.Is(err, apperrors.ErrPostNotFound))
	})

	t.Run("comment with reply", func(t *testing.T) {
		author := testutil.CreateUser(t, env.repos, models.RoleExpert)
		commenter := testutil.CreateUser(t, env.repos, models.RoleConsumer)
		post := testutil.CreatePost(t, env.repos, author.ID, "E-waste drop off", "e-waste-drop-off")

		first, err := env.community.PostComment(ctx, post.Slug, commenter.ID, &dto.CommentRequest{Content: "  Where exactly?  "})
		require.NoError(t, err)
		assert.Equal(t, "Where exactly?", first.Comment.Content)
		assert.Equal(t, int64(1), first.TotalComments)

		parentID := first.Comment.ID
		reply, err := env.community.PostComment(ctx, post.Slug, author.ID, &dto.CommentRequest{Content: "Behind the depot", ParentID: &parentID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), reply.TotalComments)

		other := testutil.CreatePost(t, env.repos, author.ID, "Other post", "other-post")
		_, err = env.community.PostComment(ctx, other.Slug, commenter.ID, &dto.CommentRequest{Content: "wrong thread", ParentID: &parentID})
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

		_, err = env.community.PostComment(ctx, post.Slug, commenter.ID, &dto.CommentRequest{Content: "   "})
		assert.True(t, errors.Is(err, apperrors.ErrEmptyComment))

		_, err = env.community.PostComment(ctx, "no-such-post", commenter.ID, &dto.CommentRequest{Content: "   "})
		assert.True(t, errors.Is(err, apperrors.ErrPostNotFound))
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

		zero := int64(0)
		top, err := env.community.PostComment(ctx, post.Slug, commenter.ID, &dto.CommentRequest{Content: "Top level", ParentID: &zero})
		require.NoError(t, err)
		assert.Nil(t, top.Comment.ParentID)

		detail, err := env.community.ViewPost(ctx, post.Slug, &commenter.ID)
		require.NoError(t, err)
		require.Len(t, detail.Comments, 2)
		assert.Len(t, detail.Comments[0].Replies, 1)
	})

	t.Run("listings with the same title get distinct slugs", func(t *testing.T) {
		owner := testutil.CreateUser(t, env.repos, models.RoleProducer)
		category := testutil.CreateCategory(t, env.repos, "Metals", "metals")

		req := &dto.CreateListingRequest{
			Title:       "Scrap Metal",
			Description: "Mixed steel offcuts from the workshop",
			Quantity:    120,
			Unit:        "kg",
			CategoryID:  category.ID,
			ListingType: models.ListingTypeWaste,
		}

		first, err := env.catalog.CreateListing(ctx, owner.ID, req, nil)
		require.NoError(t, err)
		second, err := env.catalog.CreateListing(ctx, owner.ID, req, nil)
		require.NoError(t, err)

		assert.NotEqual(t, first.Slug, second.Slug)
		assert.True(t, strings.HasPrefix(first.Slug, "scrap-metal-"))
		assert.True(t, strings.HasPrefix(second.Slug, "scrap-metal-"))
		assert.Equal(t, DefaultCurrency, first.Currency)

		viewed, err := env.catalog.ViewListing(ctx, first.Slug)
		require.NoError(t, err)
		assert.Equal(t, first.ID, viewed.ID)
	})

	t.Run("wishlist toggle", func(t *testing.T) {
		owner := testutil.CreateUser(t, env.repos, models.RoleProducer)
		buyer := testutil.CreateUser(t, env.repos, models.RoleRecycler)
		category := testutil.CreateCategory(t, env.repos, "Plastics", "plastics")

		listing, err := env.catalog.CreateListing(ctx, owner.ID, &dto.CreateListingRequest{
			Title:       "PET flakes",
			Description: "Washed clear PET flakes",
			Quantity:    2,
			Unit:        "t",
			CategoryID:  category.ID,
			ListingType: models.ListingTypeRecycled,
		}, nil)
		require.NoError(t, err)

		resp, err := env.catalog.ToggleWishlist(ctx, buyer.ID, listing.Slug)
		require.NoError(t, err)
		assert.Equal(t, "added", resp.Action)

		items, err := env.catalog.ListWishlist(ctx, buyer.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, listing.ID, items[0].ID)

		resp, err = env.catalog.ToggleWishlist(ctx, buyer.ID, listing.Slug)
		require.NoError(t, err)
		assert.Equal(t, "removed", resp.Action)
	})

	t.Run("mark all read", func(t *testing.T) {
		user := testutil.CreateUser(t, env.repos, models.RoleConsumer)
		read, err := env.notifications.Create(ctx, nil, NewNotification{UserID: user.ID, Message: "already seen"})
		require.NoError(t, err)
		_, err = env.notifications.MarkRead(ctx, read.ID, user.ID)
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			_, err := env.notifications.Create(ctx, nil, NewNotification{UserID: user.ID, Message: fmt.Sprintf("note %d", i)})
			require.NoError(t, err)
		}

		updated, err := env.notifications.MarkAllRead(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), updated)

		updated, err = env.notifications.MarkAllRead(ctx, user.ID)
		require.NoError(t, err)
		assert.Zero(t, updated)

		list, err := env.notifications.List(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, list.Notifications, 4)
		assert.Zero(t, list.UnreadCount)
	})

	t.Run("notification in a rolled back transaction is not published", func(t *testing.T) {
		user := testutil.CreateUser(t, env.repos, models.RoleConsumer)
		env.publisher.mu.Lock()
		before := len(env.publisher.events)
		env.publisher.mu.Unlock()

		errAbort := errors.New("abort")
		err := env.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
			if _, err := env.notifications.Create(ctx, tx, NewNotification{UserID: user.ID, Message: "never sent"}); err != nil {
				return err
			}
			return errAbort
		})
		assert.ErrorIs(t, err, errAbort)

		env.publisher.mu.Lock()
		after := len(env.publisher.events)
		env.publisher.mu.Unlock()
		assert.Equal(t, before, after)

		list, err := env.notifications.List(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, list.Notifications)
	})

	t.Run("notification of another user cannot be marked", func(t *testing.T) {
		owner := testutil.CreateUser(t, env.repos, models.RoleConsumer)
		other := testutil.CreateUser(t, env.repos, models.RoleConsumer)
		n, err := env.notifications.Create(ctx, nil, NewNotification{UserID: owner.ID, Message: "hello"})
		require.NoError(t, err)

		_, err = env.notifications.MarkRead(ctx, n.ID, other.ID)
		assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

		resp, err := env.notifications.MarkRead(ctx, n.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, n.ID, resp.ID)
	})

	t.Run("conversation is reused in both directions", func(t *testing.T) {
		alice := testutil.CreateUser(t, env.repos, models.RoleProducer)
		bob := testutil.CreateUser(t, env.repos, models.RoleRecycler)

		first, err := env.messaging.FindOrCreateConversation(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		again, err := env.messaging.FindOrCreateConversation(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		reverse, err := env.messaging.FindOrCreateConversation(ctx, bob.ID, alice.ID)
		require.NoError(t, err)

		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, first.ID, reverse.ID)
		assert.True(t, first.HasParticipant(alice.ID))
		assert.True(t, first.HasParticipant(bob.ID))

		_, err = env.messaging.FindOrCreateConversation(ctx, alice.ID, alice.ID)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("concurrent first contact creates one conversation", func(t *testing.T) {
		alice := testutil.CreateUser(t, env.repos, models.RoleProducer)
		bob := testutil.CreateUser(t, env.repos, models.RoleRecycler)

		const callers = 8
		ids := make([]int64, callers)
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				actor, other := alice.ID, bob.ID
				if i%2 == 1 {
					actor, other = other, actor
				}
				conversation, err := env.messaging.FindOrCreateConversation(ctx, actor, other)
				if assert.NoError(t, err) {
					ids[i] = conversation.ID
				}
			}(i)
		}
		wg.Wait()

		for _, id := range ids {
			assert.Equal(t, ids[0], id)
		}
		conversations, err := env.repos.ConversationRepository.ListForUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, conversations, 1)
	})

	t.Run("send message", func(t *testing.T) {
		alice := testutil.CreateUser(t, env.repos, models.RoleProducer)
		bob := testutil.CreateUser(t, env.repos, models.RoleRecycler)
		eve := testutil.CreateUser(t, env.repos, models.RoleConsumer)

		conversation, err := env.messaging.FindOrCreateConversation(ctx, alice.ID, bob.ID)
		require.NoError(t, err)

		_, err = env.messaging.SendMessage(ctx, conversation.ID, eve.ID, "let me in")
		assert.True(t, errors.Is(err, apperrors.ErrNotParticipant))

		count, err := env.repos.MessageRepository.CountByConversation(ctx, conversation.ID)
		require.NoError(t, err)
		assert.Zero(t, count, "non-participant send must not create a row")

		_, err = env.messaging.SendMessage(ctx, conversation.ID, alice.ID, "   ")
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

		before := len(env.publisher.events)
		message, err := env.messaging.SendMessage(ctx, conversation.ID, alice.ID, "Is the PET still available?")
		require.NoError(t, err)
		assert.NotZero(t, message.ID)

		env.publisher.mu.Lock()
		sent := env.publisher.events[before:]
		env.publisher.mu.Unlock()
		require.Len(t, sent, 1)
		assert.Equal(t, EventNewMessage, sent[0].event)
		assert.Equal(t, websocket.UserRoom(bob.ID), sent[0].room)

		unread, err := env.repos.MessageRepository.CountUnreadForUser(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), unread)

		_, err = env.messaging.ViewConversation(ctx, conversation.ID, bob.ID)
		require.NoError(t, err)
		unread, err = env.repos.MessageRepository.CountUnreadForUser(ctx, bob.ID)
		require.NoError(t, err)
		assert.Zero(t, unread)

		_, err = env.messaging.ViewConversation(ctx, conversation.ID, eve.ID)
		assert.True(t, errors.Is(err, apperrors.ErrNotParticipant))
	})
}
