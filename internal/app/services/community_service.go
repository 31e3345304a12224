package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/ecosphere/internal/app/models"
	"github.com/yigit/ecosphere/internal/app/models/dto"
	"github.com/yigit/ecosphere/internal/app/repositories"
	"github.com/yigit/ecosphere/internal/db"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
	"github.com/yigit/ecosphere/internal/pkg/filestorage"
	"github.com/yigit/ecosphere/internal/pkg/helpers"
	"github.com/yigit/ecosphere/internal/pkg/slug"
)

const (
	postSlugBytes  = 3
	postImageBytes = 8
	maxTagsPerPost = 10
	maxTagLength   = 50
)

// CommunityService defines the interface for forum operations
type CommunityService interface {
	ListPosts(ctx context.Context, tag string, page, size int) (*dto.PostListResponse, error)
	CreatePost(ctx context.Context, authorID int64, req *dto.CreatePostRequest, image *multipart.FileHeader) (*models.Post, error)
	ViewPost(ctx context.Context, slug string, actorID *int64) (*dto.PostDetailResponse, error)
	ToggleUpvote(ctx context.Context, postID, actorID int64) (*dto.UpvoteResponse, error)
	PostComment(ctx context.Context, slug string, actorID int64, req *dto.CommentRequest) (*dto.CommentResponse, error)
}

// communityServiceImpl implements CommunityService
type communityServiceImpl struct {
	postRepo            *repositories.PostRepository
	commentRepo         *repositories.CommentRepository
	upvoteRepo          *repositories.UpvoteRepository
	userRepo            *repositories.UserRepository
	notificationService NotificationService
	db                  *db.PostgresDB
	fileStorage         filestorage.FileStorage
	logger              zerolog.Logger
}

// NewCommunityService creates a new CommunityService
func NewCommunityService(
	postRepo *repositories.PostRepository,
	commentRepo *repositories.CommentRepository,
	upvoteRepo *repositories.UpvoteRepository,
	userRepo *repositories.UserRepository,
	notificationService NotificationService,
	database *db.PostgresDB,
	fileStorage filestorage.FileStorage,
	logger zerolog.Logger,
) CommunityService {
	return &communityServiceImpl{
		postRepo:            postRepo,
		commentRepo:         commentRepo,
		upvoteRepo:          upvoteRepo,
		userRepo:            userRepo,
		notificationService: notificationService,
		db:                  database,
		fileStorage:         fileStorage,
		logger:              logger,
	}
}

// ParseTags splits a comma separated tag list into tags keyed by slug.
// Blank entries and duplicate slugs are skipped.
func ParseTags(raw string) []*models.Tag {
	tags := []*models.Tag{}
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		name := truncate(strings.TrimSpace(part), maxTagLength)
		s := slug.Make(name)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		tags = append(tags, &models.Tag{Name: name, Slug: s})
		if len(tags) == maxTagsPerPost {
			break
		}
	}
	return tags
}

// postLink is the link carried by notifications about a post
func postLink(post *models.Post) *string {
	link := "/community/" + post.Slug
	return &link
}

// ListPosts returns one page of live posts, optionally filtered by tag slug
func (s *communityServiceImpl) ListPosts(ctx context.Context, tag string, page, size int) (*dto.PostListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	posts, total, err := s.postRepo.List(ctx, optional(tag), offset, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("tag", tag).Msg("Failed to list posts")
		return nil, fmt.Errorf("error listing posts: %w", err)
	}

	return &dto.PostListResponse{
		Posts:      posts,
		Pagination: helpers.NewPaginationInfo(total, page, limit),
	}, nil
}

// CreatePost validates and stores a post with its tags and optional image
func (s *communityServiceImpl) CreatePost(ctx context.Context, authorID int64, req *dto.CreatePostRequest, image *multipart.FileHeader) (*models.Post, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if len(title) < 3 || len(title) > 120 {
		return nil, apperrors.NewValidationError("title", "Title must be between 3 and 120 characters")
	}
	if len(content) < 5 {
		return nil, apperrors.NewValidationError("content", "Content must be at least 5 characters")
	}

	author, err := s.userRepo.GetByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("error getting author: %w", err)
	}

	postSlug, err := uniqueSlug(ctx, title, postSlugBytes, s.postRepo.SlugExists)
	if err != nil {
		return nil, fmt.Errorf("error generating slug: %w", err)
	}

	post := &models.Post{
		Title:   title,
		Slug:    postSlug,
		Content: content,
		UserID:  &author.ID,
		Author:  author.Summary(),
	}

	var stored *filestorage.StoredFile
	if image != nil {
		stored, err = s.fileStorage.SaveImage(image, filestorage.DirPosts, filestorage.HexName(postImageBytes))
		if err != nil {
			return nil, err
		}
		post.Image = &stored.Name
	}

	tags := ParseTags(req.Tags)
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		repo := s.postRepo.WithTx(tx)
		if err := repo.Create(ctx, post); err != nil {
			return err
		}
		post.Tags = make([]*models.Tag, 0, len(tags))
		for _, t := range tags {
			tag, err := repo.GetOrCreateTag(ctx, t.Name, t.Slug)
			if err != nil {
				return err
			}
			if err := repo.LinkTag(ctx, post.ID, tag.ID); err != nil {
				return err
			}
			post.Tags = append(post.Tags, tag)
		}
		return nil
	})
	if err != nil {
		if stored != nil {
			if rmErr := s.fileStorage.DeleteFile(filestorage.DirPosts, stored.Name); rmErr != nil {
				s.logger.Warn().Err(rmErr).Str("file", stored.Name).Msg("Failed to remove orphaned post image")
			}
		}
		s.logger.Error().Err(err).Int64("authorID", authorID).Msg("Failed to create post")
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	s.logger.Info().Int64("postID", post.ID).Str("slug", post.Slug).Int("tags", len(post.Tags)).Msg("Post created")
	return post, nil
}

// ViewPost returns a post with its comment tree and counts the view
func (s *communityServiceImpl) ViewPost(ctx context.Context, postSlug string, actorID *int64) (*dto.PostDetailResponse, error) {
	post, err := s.postRepo.GetBySlug(ctx, postSlug)
	if err != nil {
		if errors.Is(err, apperrors.ErrPostNotFound) {
			return nil, apperrors.NewCustomError(err, "Post not found")
		}
		return nil, fmt.Errorf("error getting post: %w", err)
	}

	views, err := s.postRepo.IncrementViewCount(ctx, post.ID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("postID", post.ID).Msg("Failed to increment post views")
	} else {
		post.ViewCount = views
	}

	comments, err := s.commentRepo.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing comments: %w", err)
	}

	resp := &dto.PostDetailResponse{
		Post:     post,
		Comments: models.BuildCommentTree(comments),
	}

	if actorID != nil {
		resp.HasUpvoted, err = s.upvoteRepo.Exists(ctx, post.ID, *actorID)
		if err != nil {
			return nil, fmt.Errorf("error checking upvote: %w", err)
		}
	}
	return resp, nil
}

// ToggleUpvote adds the actor's upvote or removes it if present. Only an
// actual insert notifies the post author.
func (s *communityServiceImpl) ToggleUpvote(ctx context.Context, postID, actorID int64) (*dto.UpvoteResponse, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPostNotFound) {
			return nil, apperrors.NewCustomError(err, "Post not found")
		}
		return nil, fmt.Errorf("error getting post: %w", err)
	}

	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	resp := &dto.UpvoteResponse{Status: "success"}
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		upvotes := s.upvoteRepo.WithTx(tx)

		removed, err := upvotes.Remove(ctx, post.ID, actorID)
		if err != nil {
			return err
		}

		if removed {
			resp.Action = string(models.UpvoteRemoved)
		} else {
			resp.Action = string(models.UpvoteAdded)
			inserted, err := upvotes.Add(ctx, post.ID, actorID)
			if err != nil {
				return err
			}
			if !inserted {
				s.logger.Debug().Int64("postID", post.ID).Int64("userID", actorID).Msg("Concurrent upvote already recorded")
			}
			if inserted && post.UserID != nil && *post.UserID != actorID {
				_, err := s.notificationService.Create(ctx, tx, NewNotification{
					UserID:  *post.UserID,
					Message: fmt.Sprintf("%s upvoted your post '%s'", actor.Username, post.Title),
					Link:    postLink(post),
					Type:    string(models.NotificationInfo),
				})
				if err != nil {
					return err
				}
			}
		}

		resp.TotalUpvotes, err = upvotes.CountByPost(ctx, post.ID)
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("postID", postID).Int64("userID", actorID).Msg("Failed to toggle upvote")
		return nil, fmt.Errorf("error toggling upvote: %w", err)
	}

	return resp, nil
}

// PostComment adds a comment or reply to a post and notifies its author
func (s *communityServiceImpl) PostComment(ctx context.Context, postSlug string, actorID int64, req *dto.CommentRequest) (*dto.CommentResponse, error) {
	post, err := s.postRepo.GetBySlug(ctx, postSlug)
	if err != nil {
		if errors.Is(err, apperrors.ErrPostNotFound) {
			return nil, apperrors.NewCustomError(err, "Post not found")
		}
		return nil, fmt.Errorf("error getting post: %w", err)
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrEmptyComment, "Comment cannot be empty").WithField("content")
	}

	parentID := req.ParentID
	if parentID != nil && *parentID == 0 {
		parentID = nil
	}
	if parentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *parentID)
		if err != nil && !errors.Is(err, apperrors.ErrCommentNotFound) {
			return nil, fmt.Errorf("error getting parent comment: %w", err)
		}
		if parent == nil || parent.PostID != post.ID || parent.IsDeleted {
			return nil, apperrors.NewValidationError("parent_id", "Parent comment does not belong to this post")
		}
	}

	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	comment := &models.Comment{
		PostID:         post.ID,
		UserID:         &actor.ID,
		ParentID:       parentID,
		Content:        content,
		AuthorUsername: &actor.Username,
	}

	var total int64
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		comments := s.commentRepo.WithTx(tx)
		if err := comments.Create(ctx, comment); err != nil {
			return err
		}

		if post.UserID != nil && *post.UserID != actorID {
			_, err := s.notificationService.Create(ctx, tx, NewNotification{
				UserID:  *post.UserID,
				Message: fmt.Sprintf("%s commented on your post '%s'", actor.Username, post.Title),
				Link:    postLink(post),
				Type:    string(models.NotificationMessage),
			})
			if err != nil {
				return err
			}
		}

		var err error
		total, err = comments.CountByPost(ctx, post.ID)
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("postID", post.ID).Int64("userID", actorID).Msg("Failed to post comment")
		return nil, fmt.Errorf("error posting comment: %w", err)
	}

	return &dto.CommentResponse{
		Status: "success",
		Comment: dto.CommentPayload{
			ID:       comment.ID,
			Author:   actor.Username,
			Content:  comment.Content,
			ParentID: comment.ParentID,
		},
		TotalComments: total,
	}, nil
}
