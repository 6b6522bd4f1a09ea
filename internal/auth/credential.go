package auth

import (
	"context"
	"fmt"

	"github.com/daap14/secrets/internal/user"
)

// Method identifies how a principal authenticated.
type Method string

const (
	MethodLocal     Method = "local"
	MethodFederated Method = "federated"
)

// ProviderGoogle is the only supported federated identity provider.
const ProviderGoogle = "google"

// Credential is one of LocalCredential or FederatedCredential.
type Credential interface {
	Method() Method
}

// LocalCredential is a username/password pair submitted to /login.
type LocalCredential struct {
	Username string
	Password string
}

// Method implements Credential.
func (LocalCredential) Method() Method { return MethodLocal }

// FederatedCredential is an identity already verified by an external provider.
type FederatedCredential struct {
	Provider string
	Subject  string
}

// Method implements Credential.
func (FederatedCredential) Method() Method { return MethodFederated }

// Authenticate dispatches the credential to the matching verification path.
// Federated credentials are find-or-create: an unseen subject gets a new user.
func (s *Service) Authenticate(ctx context.Context, c Credential) (*user.User, error) {
	switch c := c.(type) {
	case LocalCredential:
		return s.AuthenticateLocal(ctx, c.Username, c.Password)
	case FederatedCredential:
		if c.Provider != ProviderGoogle {
			return nil, fmt.Errorf("%w: unsupported provider %q", ErrInvalidInput, c.Provider)
		}
		u, _, err := s.FindOrCreateFederated(ctx, c.Subject)
		return u, err
	default:
		return nil, fmt.Errorf("%w: unsupported credential %T", ErrInvalidInput, c)
	}
}
