//go:build integration

package repositories_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/ecosphere/internal/app/models"
	"github.com/yigit/ecosphere/internal/app/repositories"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
	"github.com/yigit/ecosphere/internal/testutil"
)

func TestIntegration_Repositories(t *testing.T) {
	database := testutil.Postgres(t)
	repos := repositories.NewRepositories(database.Pool)
	ctx := context.Background()

	t.Run("duplicate username and email", func(t *testing.T) {
		user := testutil.CreateUser(t, repos, models.RoleConsumer)

		dup := &models.User{Username: user.Username, Email: "other@example.com", Password: "x", Role: models.RoleConsumer}
		assert.True(t, errors.Is(repos.UserRepository.Create(ctx, dup), apperrors.ErrUsernameAlreadyExists))

		dup = &models.User{Username: "someoneelse", Email: user.Email, Password: "x", Role: models.RoleConsumer}
		assert.True(t, errors.Is(repos.UserRepository.Create(ctx, dup), apperrors.ErrEmailAlreadyExists))
	})

	t.Run("upvote is unique per user and post", func(t *testing.T) {
		author := testutil.CreateUser(t, repos, models.RoleProducer)
		voter := testutil.CreateUser(t, repos, models.RoleConsumer)
		post := testutil.CreatePost(t, repos, author.ID, "Paper bales", "paper-bales")

		inserted, err := repos.UpvoteRepository.Add(ctx, post.ID, voter.ID)
		require.NoError(t, err)
		assert.True(t, inserted)

		inserted, err = repos.UpvoteRepository.Add(ctx, post.ID, voter.ID)
		require.NoError(t, err)
		assert.False(t, inserted)

		count, err := repos.UpvoteRepository.CountByPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		removed, err := repos.UpvoteRepository.Remove(ctx, post.ID, voter.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = repos.UpvoteRepository.Remove(ctx, post.ID, voter.ID)
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("concurrent upvotes keep one row", func(t *testing.T) {
		author := testutil.CreateUser(t, repos, models.RoleProducer)
		voter := testutil.CreateUser(t, repos, models.RoleConsumer)
		post := testutil.CreatePost(t, repos, author.ID, "Aluminium cans", "aluminium-cans")

		var wg sync.WaitGroup
		var inserted atomic.Int32
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := repos.UpvoteRepository.Add(ctx, post.ID, voter.ID)
				assert.NoError(t, err)
				if ok {
					inserted.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), inserted.Load())
		count, err := repos.UpvoteRepository.CountByPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("category ensure is idempotent", func(t *testing.T) {
		category := &models.Category{Name: "Glass", Slug: "glass", IsActive: true}
		inserted, err := repos.CategoryRepository.Ensure(ctx, category)
		require.NoError(t, err)
		assert.True(t, inserted)

		inserted, err = repos.CategoryRepository.Ensure(ctx, category)
		require.NoError(t, err)
		assert.False(t, inserted)
	})

	t.Run("deleting a post removes its comments and upvotes", func(t *testing.T) {
		author := testutil.CreateUser(t, repos, models.RoleExpert)
		voter := testutil.CreateUser(t, repos, models.RoleConsumer)
		post := testutil.CreatePost(t, repos, author.ID, "Textile reuse", "textile-reuse")

		_, err := repos.UpvoteRepository.Add(ctx, post.ID, voter.ID)
		require.NoError(t, err)
		comment := &models.Comment{PostID: post.ID, UserID: &voter.ID, Content: "nice"}
		require.NoError(t, repos.CommentRepository.Create(ctx, comment))

		require.NoError(t, repos.PostRepository.Delete(ctx, post.ID))

		_, err = repos.CommentRepository.GetByID(ctx, comment.ID)
		assert.True(t, errors.Is(err, apperrors.ErrCommentNotFound))
		count, err := repos.UpvoteRepository.CountByPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("deleting a user cascades and nulls authorship", func(t *testing.T) {
		owner := testutil.CreateUser(t, repos, models.RoleProducer)
		category := testutil.CreateCategory(t, repos, "Organic", "organic")

		listing := &models.Listing{
			Title:       "Coffee grounds",
			Slug:        "coffee-grounds-a1b2c3d4",
			ListingType: models.ListingTypeWaste,
			Quantity:    30,
			Unit:        "kg",
			Currency:    "RWF",
			OwnerID:     owner.ID,
			CategoryID:  &category.ID,
		}
		require.NoError(t, repos.ListingRepository.Create(ctx, listing))
		post := testutil.CreatePost(t, repos, owner.ID, "Composting at home", "composting-at-home")

		require.NoError(t, repos.UserRepository.Delete(ctx, owner.ID))

		_, err := repos.ListingRepository.GetByID(ctx, listing.ID)
		assert.True(t, errors.Is(err, apperrors.ErrListingNotFound))

		kept, err := repos.PostRepository.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Nil(t, kept.UserID)
	})

	t.Run("direct conversation lookup", func(t *testing.T) {
		a := testutil.CreateUser(t, repos, models.RoleProducer)
		b := testutil.CreateUser(t, repos, models.RoleRecycler)

		_, err := repos.ConversationRepository.FindDirect(ctx, a.ID, b.ID)
		assert.True(t, errors.Is(err, apperrors.ErrConversationNotFound))

		conversation := &models.Conversation{}
		require.NoError(t, repos.ConversationRepository.Create(ctx, conversation, []int64{a.ID, b.ID}))

		found, err := repos.ConversationRepository.FindDirect(ctx, b.ID, a.ID)
		require.NoError(t, err)
		assert.Equal(t, conversation.ID, found.ID)

		ok, err := repos.ConversationRepository.IsParticipant(ctx, conversation.ID, a.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
