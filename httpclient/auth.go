package httpclient

import "net/http"

// AuthConfig is a credential sent as a single header on every request.
type AuthConfig struct {
	Header string
	Value  string
}

// BearerAuth sends token as "Authorization: Bearer <token>". It returns nil,
// meaning no auth, for an empty token.
func BearerAuth(token string) *AuthConfig {
	if token == "" {
		return nil
	}
	return &AuthConfig{Header: "Authorization", Value: "Bearer " + token}
}

// APIKeyAuth sends key in header, X-API-Key when header is empty.
func APIKeyAuth(key, header string) *AuthConfig {
	if key == "" {
		return nil
	}
	if header == "" {
		header = "X-API-Key"
	}
	return &AuthConfig{Header: header, Value: key}
}

func (a *AuthConfig) apply(h http.Header) {
	if a != nil && a.Header != "" {
		h.Set(a.Header, a.Value)
	}
}
