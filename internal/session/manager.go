package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const tokenBytes = 32

// Manager ties session cookies to records in a Store.
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithCookieName sets the session cookie name.
func WithCookieName(name string) Option {
	return func(m *Manager) { m.cookieName = name }
}

// WithTTL sets how long a session stays valid after login.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// WithSecureCookie marks the cookie Secure (HTTPS only).
func WithSecureCookie(secure bool) Option {
	return func(m *Manager) { m.secure = secure }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager backed by store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		cookieName: "sid",
		ttl:        24 * time.Hour,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// storeID derives the store key from the cookie token, so the store never
// holds a usable token.
func storeID(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Login starts an authenticated session for p. Any session the request
// already carried is discarded and a fresh token is issued.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, p Principal) error {
	if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
		if err := m.store.Delete(r.Context(), storeID(c.Value)); err != nil {
			slog.Warn("failed to discard previous session", "error", err)
		}
	}

	token, err := newToken()
	if err != nil {
		return err
	}

	now := m.now()
	rec := Record{
		Principal: p,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(r.Context(), storeID(token), rec); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  rec.ExpiresAt,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Logout ends the session carried by the request, if any, and clears the
// cookie. It is safe to call on anonymous requests.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	var err error
	if c, cerr := r.Cookie(m.cookieName); cerr == nil && c.Value != "" {
		if derr := m.store.Delete(r.Context(), storeID(c.Value)); derr != nil {
			err = fmt.Errorf("deleting session: %w", derr)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return err
}

// Resolve loads the principal for the request's session. A missing, unknown
// or expired session resolves to nil without error.
func (m *Manager) Resolve(r *http.Request) (*Principal, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return nil, nil
	}

	id := storeID(c.Value)
	rec, err := m.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}

	if rec.Expired(m.now()) {
		if err := m.store.Delete(r.Context(), id); err != nil {
			slog.Warn("failed to delete expired session", "error", err)
		}
		return nil, nil
	}

	p := Deserialize(*rec)
	return &p, nil
}

// IsAuthenticated reports whether the request context carries a principal.
// It reflects what the session middleware resolved for this request.
func (m *Manager) IsAuthenticated(r *http.Request) bool {
	return PrincipalFrom(r.Context()) != nil
}
