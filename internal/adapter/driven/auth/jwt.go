package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ericfisherdev/volt/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.Authenticator = (*JWT)(nil)
	_ driven.Authenticator = AnyOf(nil)
)

// JWT issues and verifies HS256 bearer tokens that expire after a fixed TTL.
type JWT struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewJWT creates a JWT authenticator. secret should be at least 32
// characters; config validation enforces it.
func NewJWT(secret, issuer string, ttl time.Duration) *JWT {
	return &JWT{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// Issue returns a signed token for subject that expires after the TTL.
func (j *JWT) Issue(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    j.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Authenticate implements driven.Authenticator.
func (j *JWT) Authenticate(ctx context.Context) error {
	presented, ok := TokenFrom(ctx)
	if !ok || presented == "" {
		return fmt.Errorf("missing token: %w", driven.ErrAccessDenied)
	}

	_, err := jwt.ParseWithClaims(presented, &jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) { return j.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("parse token: %w: %w", driven.ErrAccessDenied, err)
	}
	return nil
}

// AnyOf grants access when at least one authenticator does. An empty list
// denies everything. The first error that is not ErrAccessDenied wins.
type AnyOf []driven.Authenticator

// Authenticate implements driven.Authenticator.
func (a AnyOf) Authenticate(ctx context.Context) error {
	if len(a) == 0 {
		return fmt.Errorf("no authenticator configured: %w", driven.ErrAccessDenied)
	}

	var last error
	for _, authn := range a {
		err := authn.Authenticate(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, driven.ErrAccessDenied) {
			return err
		}
		last = err
	}
	return last
}
