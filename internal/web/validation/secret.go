package validation

import (
	"strings"
	"unicode/utf8"
)

// MaxSecretLength bounds a submitted secret, in characters.
const MaxSecretLength = 1000

// ValidateSecret validates a submitted secret.
func ValidateSecret(secret string) []FieldError {
	var errs []FieldError

	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		errs = append(errs, FieldError{Field: "secret", Message: "secret is required"})
	} else if utf8.RuneCountInString(trimmed) > MaxSecretLength {
		errs = append(errs, FieldError{Field: "secret", Message: "secret must be at most 1000 characters"})
	}

	return errs
}
