package user

import (
	"time"

	"github.com/google/uuid"
)

// User represents a row in the users table (or a document in the users collection).
// At least one of Username and GoogleID is always set.
type User struct {
	ID           uuid.UUID
	Username     *string // nil for accounts created through federated login
	PasswordHash *string // bcrypt encoding, salt included
	GoogleID     *string // subject id asserted by Google
	Secret       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Reachable reports whether the user can be looked up by at least one identity field.
func (u *User) Reachable() bool {
	return (u.Username != nil && *u.Username != "") || (u.GoogleID != nil && *u.GoogleID != "")
}

// DisplayName returns the username, or an empty string for federated-only accounts.
func (u *User) DisplayName() string {
	if u.Username == nil {
		return ""
	}
	return *u.Username
}

// SecretText returns the secret, or an empty string when none was submitted.
func (u *User) SecretText() string {
	if u.Secret == nil {
		return ""
	}
	return *u.Secret
}

// KeyField names a unique identity field usable for lookups.
type KeyField string

const (
	KeyUsername KeyField = "username"
	KeyGoogleID KeyField = "google_id"
)

// Key selects a single user by one of its unique identity fields.
type Key struct {
	Field KeyField
	Value string
}

// ByUsername returns a Key selecting a user by username.
func ByUsername(username string) Key {
	return Key{Field: KeyUsername, Value: username}
}

// ByGoogleID returns a Key selecting a user by Google subject id.
func ByGoogleID(googleID string) Key {
	return Key{Field: KeyGoogleID, Value: googleID}
}

// apply sets the field selected by k on u, so a constructed user always matches its key.
func (k Key) apply(u *User) {
	v := k.Value
	switch k.Field {
	case KeyUsername:
		u.Username = &v
	case KeyGoogleID:
		u.GoogleID = &v
	}
}

func (k Key) valid() bool {
	return (k.Field == KeyUsername || k.Field == KeyGoogleID) && k.Value != ""
}

// matches reports whether u carries the value selected by k.
func (k Key) matches(u *User) bool {
	switch k.Field {
	case KeyUsername:
		return u.Username != nil && *u.Username == k.Value
	case KeyGoogleID:
		return u.GoogleID != nil && *u.GoogleID == k.Value
	}
	return false
}
