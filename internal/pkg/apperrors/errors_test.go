package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", NewValidationError("title", "title is too short"), KindValidation},
		{"duplicate username", ErrUsernameAlreadyExists, KindValidation},
		{"empty comment", fmt.Errorf("post comment: %w", ErrEmptyComment), KindValidation},
		{"bad credentials", ErrInvalidCredentials, KindUnauthenticated},
		{"expired token", fmt.Errorf("validate: %w", ErrTokenExpired), KindUnauthenticated},
		{"forbidden", NewForbiddenError("not yours"), KindForbidden},
		{"not participant", ErrNotParticipant, KindForbidden},
		{"post not found", fmt.Errorf("view: %w", ErrPostNotFound), KindNotFound},
		{"generic not found", NewCustomError(ErrResourceNotFound, "nope"), KindNotFound},
		{"conflict", NewConflictError("exists"), KindConflict},
		{"unknown", errors.New("disk on fire"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestCustomError_MessageAndUnwrap(t *testing.T) {
	err := NewCustomError(ErrListingNotFound, "listing scrap-metal-1a2b3c4d not found").
		WithField("slug").
		WithDetails(map[string]interface{}{"slug": "scrap-metal-1a2b3c4d"})

	assert.Equal(t, "listing scrap-metal-1a2b3c4d not found", err.Error())
	assert.True(t, errors.Is(err, ErrListingNotFound))
	assert.Equal(t, "slug", err.Field)

	bare := &CustomError{Err: ErrConflict}
	assert.Equal(t, "conflict", bare.Error())
}

func TestIs_MatchesAnyOfList(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ErrTokenRevoked)
	assert.True(t, Is(err, ErrTokenExpired, ErrTokenInvalid, ErrTokenRevoked))
	assert.False(t, Is(err, ErrTokenExpired, ErrTokenInvalid))
}
