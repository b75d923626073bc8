package httphandler

import (
	"html"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// textPolicy strips every HTML element from display text.
var textPolicy = bluemonday.StrictPolicy()

// maxSanitizePasses bounds unescape rounds for nested entity encodings.
const maxSanitizePasses = 4

// sanitize removes markup from a title or name and trims whitespace. Text
// that is only markup comes back empty and fails validation downstream.
// Entities are decoded and the result sanitized again until it stops
// changing, so encoded markup cannot survive as real markup. Input that has
// not settled after maxSanitizePasses comes back empty.
func sanitize(s string) string {
	for range maxSanitizePasses {
		next := html.UnescapeString(textPolicy.Sanitize(s))
		if next == s {
			return strings.TrimSpace(next)
		}
		s = next
	}
	return ""
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
