package main

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddr(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: "127.0.0.1:8080"},
		{raw: "garbage", want: "127.0.0.1:8080"},
		{raw: ":9090", want: "127.0.0.1:9090"},
		{raw: "0.0.0.0:8080", want: "127.0.0.1:8080"},
		{raw: "[::]:8080", want: "127.0.0.1:8080"},
		{raw: "10.0.0.5:8080", want: "10.0.0.5:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeAddr(tt.raw))
		})
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   int
	}{
		{name: "healthy", status: http.StatusOK, body: `{"status":"ok","time":"2026-01-01T00:00:00Z"}`, want: 0},
		{name: "unhealthy", status: http.StatusServiceUnavailable, body: `{"status":"ok"}`, want: 1},
		{name: "degraded body", status: http.StatusOK, body: `{"status":"starting"}`, want: 1},
		{name: "not json", status: http.StatusOK, body: "ok", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/health", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			host, port, err := net.SplitHostPort(srv.Listener.Addr().String())
			require.NoError(t, err)
			t.Setenv("VOLT_LISTEN_ADDR", net.JoinHostPort(host, port))

			assert.Equal(t, tt.want, check())
		})
	}
}
