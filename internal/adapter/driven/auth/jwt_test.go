package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/volt/internal/domain/port/driven"
)

const testSecret = "test-secret-at-least-32-chars-long-for-volt"

func TestJWT_IssueAndAuthenticate(t *testing.T) {
	j := NewJWT(testSecret, "volt-test", 15*time.Minute)

	token, err := j.Issue("cli")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NoError(t, j.Authenticate(WithToken(context.Background(), token)))
}

func TestJWT_Rejects(t *testing.T) {
	valid := NewJWT(testSecret, "volt-test", 15*time.Minute)

	expired, err := NewJWT(testSecret, "volt-test", -time.Minute).Issue("cli")
	require.NoError(t, err)
	otherIssuer, err := NewJWT(testSecret, "someone-else", time.Minute).Issue("cli")
	require.NoError(t, err)
	otherSecret, err := NewJWT("another-secret-at-least-32-chars-long", "volt-test", time.Minute).Issue("cli")
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    "volt-test",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer: "volt-test",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name string
		ctx  context.Context
	}{
		{name: "no token", ctx: context.Background()},
		{name: "garbage", ctx: WithToken(context.Background(), "not.a.jwt")},
		{name: "expired", ctx: WithToken(context.Background(), expired)},
		{name: "wrong issuer", ctx: WithToken(context.Background(), otherIssuer)},
		{name: "wrong secret", ctx: WithToken(context.Background(), otherSecret)},
		{name: "alg none", ctx: WithToken(context.Background(), unsigned)},
		{name: "no expiry", ctx: WithToken(context.Background(), noExpiry)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, valid.Authenticate(tt.ctx), driven.ErrAccessDenied)
		})
	}
}

type stubAuthenticator struct{ err error }

func (s stubAuthenticator) Authenticate(context.Context) error { return s.err }

func TestAnyOf_Authenticate(t *testing.T) {
	denied := stubAuthenticator{err: driven.ErrAccessDenied}
	granted := stubAuthenticator{}
	broken := stubAuthenticator{err: errors.New("keychain locked")}

	tests := []struct {
		name      string
		list      AnyOf
		wantErr   error
		wantDeny  bool
		wantGrant bool
	}{
		{name: "empty denies", list: nil, wantDeny: true},
		{name: "all deny", list: AnyOf{denied, denied}, wantDeny: true},
		{name: "second grants", list: AnyOf{denied, granted}, wantGrant: true},
		{name: "backend error surfaces", list: AnyOf{broken, granted}, wantErr: broken.err},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.list.Authenticate(context.Background())
			switch {
			case tt.wantGrant:
				assert.NoError(t, err)
			case tt.wantDeny:
				assert.ErrorIs(t, err, driven.ErrAccessDenied)
			default:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.NotErrorIs(t, err, driven.ErrAccessDenied)
			}
		})
	}
}
