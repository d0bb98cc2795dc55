package auth

import (
	"encoding/base64"
	"strings"
)

// BasicAuthHeader builds the Authorization value for providers that take
// consumer key/secret pairs, like the WooCommerce REST API.
func BasicAuthHeader(username, password string) string {
	credentials := strings.TrimSpace(username) + ":" + strings.TrimSpace(password)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
}

// BearerHeader builds the Authorization value for OAuth bearer tokens.
func BearerHeader(accessToken string) string {
	return "Bearer " + strings.TrimSpace(accessToken)
}
