package slug

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	gslug "github.com/gosimple/slug"
)

// MaxBaseLength caps the slugified part before the random suffix
const MaxBaseLength = 200

// Make returns the URL-safe form of s
func Make(s string) string {
	return gslug.Make(s)
}

// WithSuffix slugifies title, truncates it to MaxBaseLength and appends
// "-" plus the hex encoding of n random bytes. Hyphens left dangling by the
// cut are dropped.
func WithSuffix(title string, n int) (string, error) {
	base := Make(title)
	if len(base) > MaxBaseLength {
		base = strings.TrimRight(base[:MaxBaseLength], "-")
	}

	suffix, err := RandomHex(n)
	if err != nil {
		return "", err
	}
	if base == "" {
		return suffix, nil
	}
	return base + "-" + suffix, nil
}

// RandomHex returns the hex encoding of n random bytes
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
