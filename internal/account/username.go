package account

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// usernamePattern: lower case, starts with a letter, letters and digits
// only, 3 to 30 characters.
var usernamePattern = regexp.MustCompile(`^[a-z][a-z0-9]{2,29}$`)

// ValidateUsername checks the username syntax rule.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}

	return nil
}

// newValidator builds the input validator with the custom username rule
// registered.
func newValidator() *validator.Validate {
	v := validator.New()

	// the tag mirrors ValidateUsername for struct-level validation
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	return v
}
