package oauth

import (
	"context"
	"errors"
	"fmt"

	oidc "github.com/coreos/go-oidc"
	"golang.org/x/oauth2"
)

// GoogleIssuer is the OpenID Connect issuer used for discovery.
const GoogleIssuer = "https://accounts.google.com"

// Identity is an account asserted by an external provider.
type Identity struct {
	Provider string
	Subject  string
	Name     string
	Picture  string
}

// Provider is an OAuth2 identity provider.
type Provider interface {
	Name() string
	// AuthCodeURL returns the URL that starts the provider consent flow.
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for a verified identity.
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// Google authenticates users with Google's OpenID Connect endpoint.
type Google struct {
	conf     *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewGoogle discovers Google's endpoints and builds a Provider for the client.
func NewGoogle(ctx context.Context, clientID, clientSecret, redirectURL string) (*Google, error) {
	provider, err := oidc.NewProvider(ctx, GoogleIssuer)
	if err != nil {
		return nil, fmt.Errorf("discovering google oidc endpoints: %w", err)
	}

	return &Google{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// Name implements Provider.
func (g *Google) Name() string { return "google" }

// AuthCodeURL implements Provider.
func (g *Google) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state)
}

type googleClaims struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Exchange implements Provider. The identity comes from the verified ID token.
func (g *Google) Exchange(ctx context.Context, code string) (*Identity, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", err)
	}
	if !tok.Valid() {
		return nil, errors.New("invalid token retrieved")
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("token response has no id_token")
	}

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verifying id token: %w", err)
	}

	var claims googleClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decoding id token claims: %w", err)
	}

	return &Identity{
		Provider: g.Name(),
		Subject:  idToken.Subject,
		Name:     claims.Name,
		Picture:  claims.Picture,
	}, nil
}
