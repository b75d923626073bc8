// Package auth provides Authenticator adapters for the vault's driving
// adapters.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/ericfisherdev/volt/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.Authenticator = (*StaticToken)(nil)
	_ driven.Authenticator = AllowAll{}
)

type tokenKey struct{}

// WithToken returns a copy of ctx carrying the caller's presented token.
// Driving adapters call it once per request before invoking Authenticate.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the token stored by WithToken, if any.
func TokenFrom(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenKey{}).(string)
	return tok, ok
}

// StaticToken grants access when the presented token equals the configured
// one. An empty configured token denies everything.
type StaticToken struct {
	token []byte
}

// NewStaticToken creates a StaticToken authenticator.
func NewStaticToken(token string) *StaticToken {
	return &StaticToken{token: []byte(token)}
}

// Authenticate implements driven.Authenticator.
func (a *StaticToken) Authenticate(ctx context.Context) error {
	if len(a.token) == 0 {
		return fmt.Errorf("no API token configured: %w", driven.ErrAccessDenied)
	}
	presented, ok := TokenFrom(ctx)
	if !ok || presented == "" {
		return fmt.Errorf("missing token: %w", driven.ErrAccessDenied)
	}
	if subtle.ConstantTimeCompare([]byte(presented), a.token) != 1 {
		return fmt.Errorf("token mismatch: %w", driven.ErrAccessDenied)
	}
	return nil
}

// AllowAll grants every request. The local CLI uses it: whoever can run the
// binary already holds the database files and key material.
type AllowAll struct{}

// Authenticate implements driven.Authenticator.
func (AllowAll) Authenticate(context.Context) error { return nil }
