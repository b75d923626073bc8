package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/volt/internal/domain/port/driven"
)

func TestStaticToken_Authenticate(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		ctx        context.Context
		wantErr    bool
	}{
		{name: "matching token", configured: "s3cret", ctx: WithToken(context.Background(), "s3cret")},
		{name: "wrong token", configured: "s3cret", ctx: WithToken(context.Background(), "guess"), wantErr: true},
		{name: "no token presented", configured: "s3cret", ctx: context.Background(), wantErr: true},
		{name: "empty token presented", configured: "s3cret", ctx: WithToken(context.Background(), ""), wantErr: true},
		{name: "nothing configured", configured: "", ctx: WithToken(context.Background(), ""), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewStaticToken(tt.configured).Authenticate(tt.ctx)
			if tt.wantErr {
				require.ErrorIs(t, err, driven.ErrAccessDenied)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAllowAll_Authenticate(t *testing.T) {
	assert.NoError(t, AllowAll{}.Authenticate(context.Background()))
}

func TestTokenFrom(t *testing.T) {
	_, ok := TokenFrom(context.Background())
	assert.False(t, ok)

	tok, ok := TokenFrom(WithToken(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)
}
