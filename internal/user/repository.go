package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when a user record is not found.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameTaken is returned when creating a user whose username already exists.
var ErrUsernameTaken = errors.New("username already taken")

// ErrGoogleIDTaken is returned when creating a user whose Google id already exists.
var ErrGoogleIDTaken = errors.New("google id already linked")

// ErrUnreachable is returned when a user would have neither a username nor a Google id.
var ErrUnreachable = errors.New("user has no identity field")

// ErrInvalidKey is returned for lookups with an unknown field or an empty value.
var ErrInvalidKey = errors.New("invalid lookup key")

// Repository provides operations on stored users.
type Repository interface {
	// Create inserts a new user and fills in ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Find(ctx context.Context, key Key) (*User, error)
	// FindOrCreate returns the user selected by key, inserting the one produced
	// by build when none exists. It must not create two users for the same key
	// when called concurrently; created reports whether an insert happened.
	FindOrCreate(ctx context.Context, key Key, build func() *User) (u *User, created bool, err error)
	// SetSecret overwrites the user's secret. Last write wins.
	SetSecret(ctx context.Context, id uuid.UUID, secret string) error
	// ListWithSecrets returns users whose secret is non-empty, oldest first.
	ListWithSecrets(ctx context.Context) ([]User, error)
	Ping(ctx context.Context) error
}
