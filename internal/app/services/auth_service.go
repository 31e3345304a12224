package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/ecosphere/internal/app/models"
	"github.com/yigit/ecosphere/internal/app/models/dto"
	"github.com/yigit/ecosphere/internal/app/repositories"
	"github.com/yigit/ecosphere/internal/db"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
	"github.com/yigit/ecosphere/internal/pkg/auth"
	"github.com/yigit/ecosphere/internal/pkg/email"
	"github.com/yigit/ecosphere/internal/pkg/validation"
)

// EmailVerificationTTL is how long a verification link stays valid
const EmailVerificationTTL = 24 * time.Hour

// AuthService defines the interface for identity operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	VerifyEmail(ctx context.Context, token string) error
}

// authServiceImpl implements AuthService
type authServiceImpl struct {
	userRepo         *repositories.UserRepository
	tokenRepo        *repositories.TokenRepository
	verificationRepo *repositories.VerificationTokenRepository
	db               *db.PostgresDB
	jwtService       *auth.JWTService
	emailService     email.EmailService
	logger           zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo *repositories.UserRepository,
	tokenRepo *repositories.TokenRepository,
	verificationRepo *repositories.VerificationTokenRepository,
	database *db.PostgresDB,
	jwtService *auth.JWTService,
	emailService email.EmailService,
	logger zerolog.Logger,
) AuthService {
	return &authServiceImpl{
		userRepo:         userRepo,
		tokenRepo:        tokenRepo,
		verificationRepo: verificationRepo,
		db:               database,
		jwtService:       jwtService,
		emailService:     emailService,
		logger:           logger,
	}
}

// validateRegistration re-checks the binding rules so the service is safe to call directly
func validateRegistration(req *dto.RegisterRequest) error {
	username := req.Username
	if len(username) < validation.UsernameMinLength || len(username) > validation.UsernameMaxLength ||
		!validation.CompiledPatterns.Username.MatchString(username) {
		return apperrors.NewValidationError("username", "Username must be 3-80 letters, digits, '.', '_' or '-'")
	}
	if !strings.Contains(req.Email, "@") {
		return apperrors.NewValidationError("email", "Email must be a valid email address")
	}
	if len(req.Password) < validation.PasswordMinLength {
		return apperrors.NewValidationError("password", fmt.Sprintf("Password must be at least %d characters", validation.PasswordMinLength))
	}
	if req.Password != req.ConfirmPassword {
		return apperrors.NewValidationError("confirmPassword", "Passwords do not match")
	}
	if !req.Role.SelfAssignable() {
		return apperrors.NewValidationError("role", "Role must be one of: producer, recycler, consumer, expert")
	}
	return nil
}

// Register creates an account and sends the verification link
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Role == "" {
		req.Role = models.RoleConsumer
	}

	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("error checking if username exists: %w", err)
	}
	if exists {
		return nil, apperrors.NewCustomError(apperrors.ErrUsernameAlreadyExists, "Username already exists").WithField("username")
	}

	exists, err = s.userRepo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking if email exists: %w", err)
	}
	if exists {
		return nil, apperrors.NewCustomError(apperrors.ErrEmailAlreadyExists, "Email already registered").WithField("email")
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashedPassword,
		Role:     req.Role,
	}
	verificationToken := uuid.NewString()

	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.userRepo.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}
		if err := s.verificationRepo.WithTx(tx).CreateToken(ctx, user.ID, verificationToken, time.Now().Add(EmailVerificationTTL)); err != nil {
			return err
		}
		db.AfterCommit(ctx, func() {
			if err := s.emailService.SendVerificationEmail(user.Email, user.Username, verificationToken); err != nil {
				s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to send verification email")
			}
		})
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUsernameAlreadyExists):
			return nil, apperrors.NewCustomError(err, "Username already exists").WithField("username")
		case errors.Is(err, apperrors.ErrEmailAlreadyExists):
			return nil, apperrors.NewCustomError(err, "Email already registered").WithField("email")
		}
		s.logger.Error().Err(err).Str("username", req.Username).Msg("Failed to register user")
		return nil, fmt.Errorf("error registering user: %w", err)
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(user.Role)).Msg("User registered")
	return &dto.RegisterResponse{User: user, VerificationRequired: !user.IsVerified}, nil
}

// Login authenticates by email and password
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	if user.IsDeleted || !auth.CheckPassword(user.Password, req.Password) {
		s.logger.Debug().Int64("userID", user.ID).Msg("Rejected login attempt")
		return nil, apperrors.ErrInvalidCredentials
	}

	resp, err := s.issueTokens(ctx, s.tokenRepo, user)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateLastSeen(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to update last seen")
	}
	return resp, nil
}

// RefreshToken rotates a refresh token into a new token pair
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	var resp *dto.AuthResponse
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tokens := s.tokenRepo.WithTx(tx)

		userID, err := tokens.GetUserIDByToken(ctx, refreshToken)
		if err != nil {
			return err
		}
		if _, err := tokens.RevokeToken(ctx, refreshToken); err != nil {
			return err
		}

		user, err := s.userRepo.WithTx(tx).GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) {
				return apperrors.ErrInvalidCredentials
			}
			return err
		}
		if user.IsDeleted {
			return apperrors.ErrInvalidCredentials
		}

		resp, err = s.issueTokens(ctx, tokens, user)
		return err
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindUnauthenticated {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("Failed to refresh token")
		return nil, fmt.Errorf("error refreshing token: %w", err)
	}
	return resp, nil
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *authServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	revoked, err := s.tokenRepo.RevokeToken(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("error revoking token: %w", err)
	}
	s.logger.Debug().Bool("revoked", revoked).Msg("Logout processed")
	return nil
}

// VerifyEmail consumes a verification token and marks the user verified
func (s *authServiceImpl) VerifyEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return apperrors.NewCustomError(apperrors.ErrInvalidEmailToken, "Verification token is required").WithField("token")
	}

	return s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tokens := s.verificationRepo.WithTx(tx)

		userID, expiry, err := tokens.GetTokenInfo(ctx, token)
		if err != nil {
			return err
		}
		if time.Now().After(expiry) {
			return apperrors.NewCustomError(apperrors.ErrInvalidEmailToken, "Verification link has expired")
		}

		if err := s.userRepo.WithTx(tx).MarkVerified(ctx, userID); err != nil {
			return err
		}
		if err := tokens.DeleteToken(ctx, token); err != nil {
			return err
		}
		s.logger.Info().Int64("userID", userID).Msg("Email verified")
		return nil
	})
}

// issueTokens creates a token pair and stores the refresh token through tokens
func (s *authServiceImpl) issueTokens(ctx context.Context, tokens *repositories.TokenRepository, user *models.User) (*dto.AuthResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("error generating tokens: %w", err)
	}

	if err := tokens.CreateToken(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiry); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken:           pair.AccessToken,
			TokenType:             "Bearer",
			ExpiresIn:             pair.ExpiresIn,
			RefreshToken:          pair.RefreshToken,
			RefreshTokenExpiresIn: pair.RefreshExpiresIn,
		},
		User: user.Summary(),
	}, nil
}
