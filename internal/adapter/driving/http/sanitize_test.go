package httphandler

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Email", want: "Email"},
		{in: "  <b>Bank</b>  ", want: "Bank"},
		{in: "Tom & Jerry", want: "Tom & Jerry"},
		{in: `<img src=x onerror="alert(1)">`, want: ""},
		{in: "<script>alert(1)</script>", want: ""},
		{in: "&lt;script&gt;alert(1)&lt;/script&gt;", want: ""},
		{in: "&amp;lt;b&amp;gt;Bank&amp;lt;/b&amp;gt;", want: "Bank"},
		{in: "a &lt; b", want: "a < b"},
		{in: "Tom &amp; Jerry", want: "Tom & Jerry"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitize(tt.in))
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "", want: ""},
		{header: "Bearer abc", want: "abc"},
		{header: "bearer  abc ", want: "abc"},
		{header: "Basic abc", want: ""},
		{header: "Bearer", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, bearerToken(req))
		})
	}
}
