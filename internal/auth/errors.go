package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateUsername is returned when registering a username that already exists.
	ErrDuplicateUsername = errors.New("username already registered")

	// ErrNotFound is returned when no local account has the given username.
	ErrNotFound = errors.New("no such account")

	// ErrInvalidCredential is returned when the password does not match the stored hash.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrStoreUnavailable wraps persistence failures.
	ErrStoreUnavailable = errors.New("user store unavailable")

	// ErrProviderFailure is returned when the federated identity provider
	// rejected or aborted the handshake.
	ErrProviderFailure = errors.New("identity provider failure")

	// ErrInvalidInput is returned when a required credential field is missing or malformed.
	ErrInvalidInput = errors.New("invalid credential input")
)

// storeError wraps a repository failure so callers can match ErrStoreUnavailable
// while the original cause stays in the chain.
func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
