package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/ecosphere/internal/app/models"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "ecosphere.test",
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService()
	user := &models.User{ID: 42, Username: "recycler_rw", Role: models.RoleRecycler}

	pair, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(3600), pair.ExpiresIn)
	assert.Equal(t, int64(86400), pair.RefreshExpiresIn)

	claims, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "recycler_rw", claims.Username)
	assert.Equal(t, "recycler", claims.Role)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestService()
	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }

	pair, err := svc.GenerateTokenPair(&models.User{ID: 1, Username: "a", Role: models.RoleConsumer})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(pair.AccessToken)
	assert.True(t, errors.Is(err, apperrors.ErrTokenExpired))
}

func TestValidateToken_WrongSecret(t *testing.T) {
	pair, err := newTestService().GenerateTokenPair(&models.User{ID: 1, Username: "a", Role: models.RoleConsumer})
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "ecosphere.test"})
	_, err = other.ValidateToken(pair.AccessToken)
	assert.True(t, errors.Is(err, apperrors.ErrTokenInvalid))

	_, err = other.ValidateToken("")
	assert.True(t, errors.Is(err, apperrors.ErrTokenInvalid))
}

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer aaa.bbb.ccc")
	require.NoError(t, err)
	assert.Equal(t, "aaa.bbb.ccc", token)

	token, err = ExtractBearerToken(`"aaa.bbb.ccc"`)
	require.NoError(t, err)
	assert.Equal(t, "aaa.bbb.ccc", token)

	_, err = ExtractBearerToken("")
	assert.True(t, errors.Is(err, apperrors.ErrTokenNotFound))

	_, err = ExtractBearerToken("Basic dXNlcjpwYXNz")
	assert.True(t, errors.Is(err, apperrors.ErrTokenInvalid))
}

func TestHashAndCheckPassword(t *testing.T) {
	BcryptCost = bcrypt.MinCost
	t.Cleanup(func() { BcryptCost = 12 })

	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
