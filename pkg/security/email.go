package security

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var emailValidator = validator.New()

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail applies the same rule as the `email` validate tag on request
// bodies.
func ValidEmail(email string) bool {
	return emailValidator.Var(email, "required,email") == nil
}
