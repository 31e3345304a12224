package validation

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/ecosphere/internal/app/models"
)

// Validation rule patterns
var (
	// Usernames are letters, digits, underscore, dot and hyphen
	UsernamePattern = `^[A-Za-z0-9_.\-]+$`

	UsernameMinLength = 3
	UsernameMaxLength = 80

	PasswordMinLength = 6
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Username *regexp.Regexp
}{
	Username: regexp.MustCompile(UsernamePattern),
}

var registerOnce sync.Once

// RegisterCustomValidators adds the domain tags to gin's validator engine.
// Safe to call more than once.
func RegisterCustomValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		err = Register(v)
	})
	return err
}

// Register adds the username, role and listingtype tags to v
func Register(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"username":    validateUsername,
		"role":        validateRole,
		"listingtype": validateListingType,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}

func validateUsername(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) < UsernameMinLength || len(s) > UsernameMaxLength {
		return false
	}
	return CompiledPatterns.Username.MatchString(s)
}

// role accepts only self-assignable roles
func validateRole(fl validator.FieldLevel) bool {
	return models.RoleType(fl.Field().String()).SelfAssignable()
}

func validateListingType(fl validator.FieldLevel) bool {
	return models.ListingType(fl.Field().String()).IsValid()
}
