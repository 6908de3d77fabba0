// Package session supplies bearer tokens to the gateway client. Token
// acquisition (login) is outside this module; providers only read what the
// surrounding tooling has stored.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appErrors "github.com/noah-isme/sma-fee-sync/pkg/errors"
)

// TokenProvider yields the bearer token attached to every gateway request.
// Implementations must be safe for concurrent use.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticProvider returns a fixed token. Intended for tests and one-off tools.
type StaticProvider string

// Token implements TokenProvider.
func (p StaticProvider) Token(ctx context.Context) (string, error) {
	if p == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "no session token configured")
	}
	return string(p), nil
}

// checkExpiry rejects JWTs that are already expired so a doomed request is
// never sent. Signature verification stays with the gateway; opaque
// (non-JWT) tokens pass through untouched.
func checkExpiry(token string, now time.Time) error {
	if strings.Count(token, ".") != 2 {
		return nil
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if now.After(exp.Time) {
		return appErrors.Clone(appErrors.ErrSessionExpired, "session token expired, please sign in again")
	}
	return nil
}
