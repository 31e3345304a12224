package slug

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	assert.Equal(t, "paper-and-cardboard", Make("Paper & Cardboard"))
	assert.Equal(t, "scrap-metal", Make("  Scrap Metal "))
}

func TestWithSuffix(t *testing.T) {
	pattern := regexp.MustCompile(`^scrap-metal-[0-9a-f]{8}$`)

	a, err := WithSuffix("Scrap Metal", 4)
	require.NoError(t, err)
	b, err := WithSuffix("Scrap Metal", 4)
	require.NoError(t, err)

	assert.Regexp(t, pattern, a)
	assert.Regexp(t, pattern, b)
	assert.NotEqual(t, a, b)
}

func TestWithSuffix_Truncates(t *testing.T) {
	s, err := WithSuffix(strings.Repeat("a", 300), 3)
	require.NoError(t, err)

	assert.Len(t, s, MaxBaseLength+1+6)
	assert.True(t, strings.HasPrefix(s, strings.Repeat("a", MaxBaseLength)+"-"))
}

func TestWithSuffix_TruncationAtHyphen(t *testing.T) {
	title := strings.Repeat("a", MaxBaseLength-1) + " tail"
	s, err := WithSuffix(title, 3)
	require.NoError(t, err)

	assert.NotContains(t, s, "--")
	assert.Regexp(t, `^a{199}-[0-9a-f]{6}$`, s)
}

func TestWithSuffix_EmptyTitle(t *testing.T) {
	s, err := WithSuffix("!!!", 3)
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{6}$`, s)
}
