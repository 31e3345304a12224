package dto

import "github.com/yigit/ecosphere/internal/app/models"

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int64  `json:"expiresIn"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn,omitempty"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username        string          `json:"username" binding:"required,username" example:"green_trader"`
	Email           string          `json:"email" binding:"required,email,max=120" example:"trader@example.com"`
	Password        string          `json:"password" binding:"required,min=6"`
	ConfirmPassword string          `json:"confirmPassword" binding:"required,eqfield=Password"`
	Role            models.RoleType `json:"role" binding:"omitempty,role" example:"producer"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse       `json:"token"`
	User  *models.UserSummary `json:"user"`
}

// RegisterResponse is returned after a successful registration
type RegisterResponse struct {
	User                 *models.User `json:"user"`
	VerificationRequired bool         `json:"verificationRequired"`
}
