package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/ecosphere/internal/app/models"
	"github.com/yigit/ecosphere/internal/app/models/dto"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
	"github.com/yigit/ecosphere/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWT() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "middleware-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "ecosphere.test",
	})
}

func accessToken(t *testing.T, jwt *auth.JWTService, user *models.User) string {
	t.Helper()
	pair, err := jwt.GenerateTokenPair(user)
	require.NoError(t, err)
	return pair.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.APIResponse {
	t.Helper()
	var resp dto.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code  string `json:"code"`
			Field string `json:"field"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestJWTAuth(t *testing.T) {
	jwt := newJWT()
	m := NewAuthMiddleware(jwt, nil)
	token := accessToken(t, jwt, &models.User{ID: 7, Username: "amina", Role: models.RoleConsumer})

	r := gin.New()
	r.GET("/me", m.JWTAuth(), func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": id, "username": c.GetString(ContextUsername)})
	})

	t.Run("header token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":7,"username":"amina"}`, w.Body.String())
	})

	t.Run("query token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me?token="+token, nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, string(dto.ErrorCodeUnauthorized), errorCode(t, w))
		assert.False(t, decode(t, w).Success)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, string(dto.ErrorCodeInvalidToken), errorCode(t, w))
	})
}

func TestOptionalAuth(t *testing.T) {
	jwt := newJWT()
	m := NewAuthMiddleware(jwt, nil)

	r := gin.New()
	r.GET("/posts", m.OptionalAuth(), func(c *gin.Context) {
		if id := OptionalUserID(c); id != nil {
			c.String(http.StatusOK, fmt.Sprintf("user %d", *id))
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts", nil))
	assert.Equal(t, "anonymous", w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer broken")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, jwt, &models.User{ID: 3, Username: "kofi", Role: models.RoleProducer}))
	r.ServeHTTP(w, req)
	assert.Equal(t, "user 3", w.Body.String())
}

func TestHandleAPIError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
		msg    string
		field  string
	}{
		{
			name:   "validation with field",
			err:    apperrors.NewValidationError("quantity", "Quantity must be greater than 0"),
			status: http.StatusBadRequest,
			code:   dto.ErrorCodeValidationFailed,
			msg:    "Quantity must be greater than 0",
			field:  "quantity",
		},
		{
			name:   "invalid credentials",
			err:    apperrors.ErrInvalidCredentials,
			status: http.StatusUnauthorized,
			code:   dto.ErrorCodeInvalidCredentials,
			msg:    "Invalid credentials",
		},
		{
			name:   "disabled account",
			err:    apperrors.ErrAccountDisabled,
			status: http.StatusUnauthorized,
			code:   dto.ErrorCodeAccountDisabled,
			msg:    "Account is disabled",
		},
		{
			name:   "not a participant",
			err:    apperrors.NewCustomError(apperrors.ErrNotParticipant, "You are not part of this conversation"),
			status: http.StatusForbidden,
			code:   dto.ErrorCodeForbidden,
			msg:    "You are not part of this conversation",
		},
		{
			name:   "not found sentinel",
			err:    fmt.Errorf("load: %w", apperrors.ErrListingNotFound),
			status: http.StatusNotFound,
			code:   dto.ErrorCodeResourceNotFound,
			msg:    "Resource not found",
		},
		{
			name:   "conflict",
			err:    apperrors.NewConflictError("Already upvoted"),
			status: http.StatusConflict,
			code:   dto.ErrorCodeConflict,
			msg:    "Already upvoted",
		},
		{
			name:   "internal",
			err:    errors.New("connection reset"),
			status: http.StatusInternalServerError,
			code:   dto.ErrorCodeInternalServer,
			msg:    "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

			HandleAPIError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body struct {
				Success bool `json:"success"`
				Error   struct {
					Code    string `json:"code"`
					Message string `json:"message"`
					Field   string `json:"field"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, string(tt.code), body.Error.Code)
			assert.Equal(t, tt.msg, body.Error.Message)
			assert.Equal(t, tt.field, body.Error.Field)
		})
	}
}

func TestBindJSON(t *testing.T) {
	type payload struct {
		Content string `json:"content" binding:"required"`
	}

	r := gin.New()
	r.POST("/x", func(c *gin.Context) {
		var p payload
		if !BindJSON(c, &p) {
			return
		}
		c.String(http.StatusOK, p.Content)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(dto.ErrorCodeValidationFailed), errorCode(t, w))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"content":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zerolog.Nop()))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
