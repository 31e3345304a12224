package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string `validate:"required,username"`
	Role     string `validate:"required,role"`
}

type offer struct {
	ListingType string `validate:"required,listingtype"`
}

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	require.NoError(t, Register(v))
	return v
}

func TestUsernameRule(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Struct(signup{Username: "green_bee.42", Role: "producer"}))
	assert.Error(t, v.Struct(signup{Username: "ab", Role: "producer"}))
	assert.Error(t, v.Struct(signup{Username: "has space", Role: "producer"}))
}

func TestRoleRule(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Struct(signup{Username: "recycler1", Role: "recycler"}))
	assert.Error(t, v.Struct(signup{Username: "recycler1", Role: "admin"}))
	assert.Error(t, v.Struct(signup{Username: "recycler1", Role: "student"}))
}

func TestListingTypeRule(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Struct(offer{ListingType: "waste"}))
	assert.NoError(t, v.Struct(offer{ListingType: "recycled"}))
	assert.Error(t, v.Struct(offer{ListingType: "new"}))
}

func TestRegisterCustomValidators(t *testing.T) {
	require.NoError(t, RegisterCustomValidators())
	require.NoError(t, RegisterCustomValidators())
}
