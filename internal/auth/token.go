package auth

import (
	"net/http"
	"strings"
)

// ExtractAccessToken returns the bearer token from the Authorization header.
// The scheme is matched case-insensitively.
func ExtractAccessToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}
