package oauth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/daap14/secrets/internal/auth"
)

// NonceCookie holds the per-attempt nonce between Begin and Complete.
const NonceCookie = "oauth_nonce"

// Flow runs the browser side of an authorization code login: Begin
// redirects to the provider, Complete validates the callback.
type Flow struct {
	provider Provider
	codec    *StateCodec
	secure   bool
}

// NewFlow creates a Flow for provider. States are signed by codec.
func NewFlow(provider Provider, codec *StateCodec, secureCookie bool) *Flow {
	return &Flow{provider: provider, codec: codec, secure: secureCookie}
}

// Provider returns the provider this flow authenticates against.
func (f *Flow) Provider() Provider {
	return f.provider
}

func providerFailure(format string, args ...any) error {
	return fmt.Errorf("%w: %s", auth.ErrProviderFailure, fmt.Sprintf(format, args...))
}

// Begin stores a fresh nonce in a cookie and redirects to the provider with
// a signed state carrying the same nonce.
func (f *Flow) Begin(w http.ResponseWriter, r *http.Request) error {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Errorf("generating nonce: %w", err)
	}
	nonce := base64.RawURLEncoding.EncodeToString(b)

	state, err := f.codec.Encode(nonce)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     NonceCookie,
		Value:    nonce,
		Path:     "/auth",
		MaxAge:   int(StateTTL.Seconds()),
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, f.provider.AuthCodeURL(state), http.StatusFound)
	return nil
}

// Complete validates the provider callback and returns the verified identity.
// Every failure wraps auth.ErrProviderFailure. The nonce cookie is cleared
// whatever the outcome.
func (f *Flow) Complete(w http.ResponseWriter, r *http.Request) (*Identity, error) {
	http.SetCookie(w, &http.Cookie{
		Name:     NonceCookie,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})

	query := r.URL.Query()
	if reason := query.Get("error"); reason != "" {
		return nil, providerFailure("provider returned %q", reason)
	}

	state := query.Get("state")
	if state == "" {
		return nil, providerFailure("missing state")
	}

	cookie, err := r.Cookie(NonceCookie)
	if err != nil || cookie.Value == "" {
		return nil, providerFailure("missing nonce cookie")
	}

	nonce, err := f.codec.Decode(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrProviderFailure, err)
	}
	if subtle.ConstantTimeCompare([]byte(nonce), []byte(cookie.Value)) != 1 {
		return nil, providerFailure("nonce mismatch")
	}

	code := query.Get("code")
	if code == "" {
		return nil, providerFailure("missing authorization code")
	}

	identity, err := f.provider.Exchange(r.Context(), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrProviderFailure, err)
	}
	if identity.Subject == "" {
		return nil, providerFailure("provider returned no subject")
	}
	return identity, nil
}
