package validation

import (
	"strings"

	"github.com/daap14/secrets/internal/auth"
)

// CredentialsForm mirrors the fields posted by the register and login forms.
type CredentialsForm struct {
	Username string
	Password string
}

// ValidateCredentialsForm validates a register or login submission.
func ValidateCredentialsForm(req CredentialsForm) []FieldError {
	var errs []FieldError

	username := strings.TrimSpace(req.Username)
	if username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "username is required"})
	} else if len(username) > auth.MaxUsernameLength {
		errs = append(errs, FieldError{Field: "username", Message: "username must be at most 255 characters"})
	}

	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	} else if len(req.Password) > auth.MaxPasswordBytes {
		errs = append(errs, FieldError{Field: "password", Message: "password must be at most 72 bytes"})
	}

	return errs
}
