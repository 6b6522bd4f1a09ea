package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/daap14/secrets/internal/user"
)

// ErrNotFound is returned by a Store for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Principal is the authenticated identity attached to a session. It never
// carries credential material.
type Principal struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username,omitempty"`
	Picture  string    `json:"picture,omitempty"`
}

// Record is what a Store persists per session.
type Record struct {
	Principal Principal `json:"principal"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the record is past its expiry at now.
func (r *Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Store persists session records keyed by an opaque id.
type Store interface {
	Get(ctx context.Context, id string) (*Record, error)
	Save(ctx context.Context, id string, rec Record) error
	// Delete removes the record. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

// Serialize projects a user onto the fields kept in the session.
func Serialize(u *user.User) Principal {
	return Principal{
		ID:       u.ID,
		Username: u.DisplayName(),
	}
}

// Deserialize returns the stored principal as is; the store is not consulted.
func Deserialize(rec Record) Principal {
	return rec.Principal
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom retrieves the authenticated principal, or nil for anonymous requests.
func PrincipalFrom(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey{}).(*Principal); ok {
		return p
	}
	return nil
}
