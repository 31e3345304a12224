package auth

import (
	"context"
	"errors"

	"github.com/yigit/ecosphere/internal/app/models"
	"github.com/yigit/ecosphere/internal/app/repositories"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
	"github.com/yigit/ecosphere/internal/pkg/logger"
)

// AuthorizationService answers account-level access questions that a
// signed token alone cannot: the account may have been deleted since the
// token was issued.
type AuthorizationService struct {
	userRepo *repositories.UserRepository
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(userRepo *repositories.UserRepository) *AuthorizationService {
	return &AuthorizationService{userRepo: userRepo}
}

// ActiveUser returns the user behind userID, failing for unknown or
// soft-deleted accounts
func (s *AuthorizationService) ActiveUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error getting user by ID in ActiveUser")
		return nil, err
	}
	if user.IsDeleted {
		return nil, apperrors.ErrAccountDisabled
	}
	return user, nil
}
