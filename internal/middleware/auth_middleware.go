package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	appAuth "github.com/yigit/ecosphere/internal/app/auth"
	"github.com/yigit/ecosphere/internal/app/models/dto"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
	"github.com/yigit/ecosphere/internal/pkg/auth"
)

// Context keys set by the auth middleware
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
	ContextRole     = "role"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
	authz      *appAuth.AuthorizationService
}

// NewAuthMiddleware creates a new AuthMiddleware. authz may be nil, in which
// case ActiveAccountRequired lets every request through.
func NewAuthMiddleware(jwtService *auth.JWTService, authz *appAuth.AuthorizationService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		authz:      authz,
	}
}

// tokenFromRequest reads the bearer token from the Authorization header, or
// from the token query parameter for websocket clients that cannot set headers
func tokenFromRequest(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		authHeader = c.Query("token")
	}
	return auth.ExtractBearerToken(authHeader)
}

func (m *AuthMiddleware) authenticate(c *gin.Context) error {
	tokenString, err := tokenFromRequest(c)
	if err != nil {
		return err
	}

	claims, err := m.jwtService.ValidateToken(tokenString)
	if err != nil {
		return err
	}

	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
	c.Set(ContextRole, claims.Role)
	return nil
}

// JWTAuth middleware for JWT token validation
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.authenticate(c); err != nil {
			errorCode := dto.ErrorCodeInvalidToken
			details := "Invalid token"

			switch {
			case errors.Is(err, apperrors.ErrTokenNotFound):
				errorCode = dto.ErrorCodeUnauthorized
				details = "Authorization header missing"
			case errors.Is(err, apperrors.ErrTokenExpired):
				errorCode = dto.ErrorCodeExpiredToken
				details = "Token has expired"
			}

			errorDetail := dto.NewErrorDetail(errorCode, "Authentication required").WithDetails(details)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}
		c.Next()
	}
}

// OptionalAuth sets the user when a valid token is present and never aborts
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = m.authenticate(c)
		c.Next()
	}
}

// ActiveAccountRequired rejects tokens whose account was deleted after issue.
// Must run after JWTAuth.
func (m *AuthMiddleware) ActiveAccountRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.authz == nil {
			c.Next()
			return
		}

		userID, ok := CurrentUserID(c)
		if !ok {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		if _, err := m.authz.ActiveUser(c.Request.Context(), userID); err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user's ID
func CurrentUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}

// OptionalUserID returns the authenticated user's ID or nil for anonymous requests
func OptionalUserID(c *gin.Context) *int64 {
	if id, ok := CurrentUserID(c); ok {
		return &id
	}
	return nil
}
