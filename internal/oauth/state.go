package oauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StateTTL bounds how long a login attempt may take at the provider.
const StateTTL = 10 * time.Minute

var errInvalidState = errors.New("invalid oauth state")

type stateClaims struct {
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// StateCodec signs and verifies the OAuth state parameter. The state is an
// HS256 token carrying the nonce that is also stored in the browser cookie.
type StateCodec struct {
	key []byte
	now func() time.Time
}

// NewStateCodec creates a codec signing with key.
func NewStateCodec(key []byte) *StateCodec {
	return &StateCodec{key: key, now: time.Now}
}

// Encode returns a signed state for nonce.
func (c *StateCodec) Encode(nonce string) (string, error) {
	now := c.now()
	claims := stateClaims{
		Nonce: nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(StateTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("signing state: %w", err)
	}
	return signed, nil
}

// Decode verifies state and returns the nonce it carries.
func (c *StateCodec) Decode(state string) (string, error) {
	var claims stateClaims
	_, err := jwt.ParseWithClaims(state, &claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errInvalidState, err)
	}
	if claims.Nonce == "" {
		return "", fmt.Errorf("%w: missing nonce", errInvalidState)
	}
	return claims.Nonce, nil
}
