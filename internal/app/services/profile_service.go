package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/ecosphere/internal/app/models"
	"github.com/yigit/ecosphere/internal/app/models/dto"
	"github.com/yigit/ecosphere/internal/app/repositories"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
	"github.com/yigit/ecosphere/internal/pkg/filestorage"
)

const (
	dashboardRecentListings = 3
	dashboardRecentPosts    = 3
	dashboardRecentMessages = 5
)

// ProfileService defines the interface for profile and dashboard operations
type ProfileService interface {
	GetProfile(ctx context.Context, username string) (*dto.ProfileResponse, error)
	GetOwnProfile(ctx context.Context, actorID int64) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, actorID int64, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
	UploadAvatar(ctx context.Context, actorID int64, file *multipart.FileHeader) (*dto.ProfileResponse, error)
	Dashboard(ctx context.Context, actorID int64) (*models.Dashboard, error)
}

// profileServiceImpl implements ProfileService
type profileServiceImpl struct {
	userRepo    *repositories.UserRepository
	listingRepo *repositories.ListingRepository
	postRepo    *repositories.PostRepository
	messageRepo *repositories.MessageRepository
	fileStorage filestorage.FileStorage
	logger      zerolog.Logger
}

// NewProfileService creates a new ProfileService
func NewProfileService(
	userRepo *repositories.UserRepository,
	listingRepo *repositories.ListingRepository,
	postRepo *repositories.PostRepository,
	messageRepo *repositories.MessageRepository,
	fileStorage filestorage.FileStorage,
	logger zerolog.Logger,
) ProfileService {
	return &profileServiceImpl{
		userRepo:    userRepo,
		listingRepo: listingRepo,
		postRepo:    postRepo,
		messageRepo: messageRepo,
		fileStorage: fileStorage,
		logger:      logger,
	}
}

func (s *profileServiceImpl) buildProfile(ctx context.Context, user *models.User) (*dto.ProfileResponse, error) {
	stats, err := s.userRepo.GetStats(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error getting profile stats: %w", err)
	}

	resp := &dto.ProfileResponse{
		User:              user,
		Stats:             *stats,
		ProfileCompletion: user.ProfileCompletion(),
	}
	if user.AvatarFilename != nil {
		resp.AvatarURL = s.fileStorage.URL(filestorage.DirAvatars, *user.AvatarFilename)
	}
	return resp, nil
}

func (s *profileServiceImpl) activeUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user.IsDeleted {
		return nil, apperrors.ErrAccountDisabled
	}
	return user, nil
}

// GetProfile returns the public profile of username
func (s *profileServiceImpl) GetProfile(ctx context.Context, username string) (*dto.ProfileResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.NewCustomError(err, "User not found")
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user.IsDeleted {
		return nil, apperrors.NewCustomError(apperrors.ErrUserNotFound, "User not found")
	}
	return s.buildProfile(ctx, user)
}

// GetOwnProfile returns the actor's profile
func (s *profileServiceImpl) GetOwnProfile(ctx context.Context, actorID int64) (*dto.ProfileResponse, error) {
	user, err := s.activeUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.buildProfile(ctx, user)
}

// UpdateProfile replaces the actor's editable profile fields
func (s *profileServiceImpl) UpdateProfile(ctx context.Context, actorID int64, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	if len(strings.TrimSpace(req.FullName)) > 120 {
		return nil, apperrors.NewValidationError("fullName", "Full name must be at most 120 characters")
	}
	if len(strings.TrimSpace(req.Bio)) > 500 {
		return nil, apperrors.NewValidationError("bio", "Bio must be at most 500 characters")
	}
	if len(strings.TrimSpace(req.Location)) > 120 {
		return nil, apperrors.NewValidationError("location", "Location must be at most 120 characters")
	}

	update := repositories.ProfileUpdate{
		FullName:  optional(req.FullName),
		Bio:       optional(req.Bio),
		Location:  optional(req.Location),
		Twitter:   optional(req.Twitter),
		Instagram: optional(req.Instagram),
		Github:    optional(req.Github),
	}
	if err := s.userRepo.UpdateProfile(ctx, actorID, update); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		s.logger.Error().Err(err).Int64("userID", actorID).Msg("Failed to update profile")
		return nil, fmt.Errorf("error updating profile: %w", err)
	}

	return s.GetOwnProfile(ctx, actorID)
}

// UploadAvatar stores a new avatar and removes the previous file
func (s *profileServiceImpl) UploadAvatar(ctx context.Context, actorID int64, file *multipart.FileHeader) (*dto.ProfileResponse, error) {
	if file == nil {
		return nil, apperrors.NewValidationError("avatar", "No file uploaded")
	}

	user, err := s.activeUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	kind, err := filestorage.SniffImageType(file)
	if err != nil {
		return nil, err
	}

	// the stored extension follows the sniffed content, not the client filename
	stored, err := s.fileStorage.SaveImage(file, filestorage.DirAvatars, func(string) (string, error) {
		return filestorage.UUIDName(kind)
	})
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateAvatar(ctx, actorID, &stored.Name); err != nil {
		if rmErr := s.fileStorage.DeleteFile(filestorage.DirAvatars, stored.Name); rmErr != nil {
			s.logger.Warn().Err(rmErr).Str("file", stored.Name).Msg("Failed to remove orphaned avatar")
		}
		return nil, fmt.Errorf("error updating avatar: %w", err)
	}

	if user.AvatarFilename != nil && *user.AvatarFilename != stored.Name {
		if err := s.fileStorage.DeleteFile(filestorage.DirAvatars, *user.AvatarFilename); err != nil {
			s.logger.Warn().Err(err).Str("file", *user.AvatarFilename).Msg("Failed to remove previous avatar")
		}
	}

	user.AvatarFilename = &stored.Name
	s.logger.Info().Int64("userID", actorID).Str("file", stored.Name).Msg("Avatar updated")
	return s.buildProfile(ctx, user)
}

// Dashboard gathers the actor's counters and recent activity
func (s *profileServiceImpl) Dashboard(ctx context.Context, actorID int64) (*models.Dashboard, error) {
	stats, err := s.userRepo.GetStats(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("error getting stats: %w", err)
	}

	unread, err := s.messageRepo.CountUnreadForUser(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("error counting unread messages: %w", err)
	}

	listings, _, err := s.listingRepo.List(ctx, models.ListingFilter{OwnerID: &actorID, Limit: dashboardRecentListings})
	if err != nil {
		return nil, fmt.Errorf("error getting recent listings: %w", err)
	}

	posts, err := s.postRepo.RecentByUser(ctx, actorID, dashboardRecentPosts)
	if err != nil {
		return nil, fmt.Errorf("error getting recent posts: %w", err)
	}

	messages, err := s.messageRepo.RecentForUser(ctx, actorID, dashboardRecentMessages)
	if err != nil {
		return nil, fmt.Errorf("error getting recent messages: %w", err)
	}

	return &models.Dashboard{
		ActiveListings:  stats.TotalListings,
		Posts:           stats.TotalPosts,
		UpvotesReceived: stats.TotalUpvotesReceived,
		UnreadMessages:  unread,
		RecentListings:  listings,
		RecentPosts:     posts,
		RecentMessages:  messages,
	}, nil
}
