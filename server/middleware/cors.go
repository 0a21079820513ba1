package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig lists what cross-origin callers may do. An AllowedOrigins entry
// of "*" admits any origin; the actual origin is still echoed back.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
	ExposedHeaders   []string `yaml:"exposed_headers" mapstructure:"exposed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials" mapstructure:"allow_credentials"`
	// MaxAge is how long, in seconds, browsers may cache a preflight answer.
	MaxAge int `yaml:"max_age" mapstructure:"max_age"`
}

func (c *CORSConfig) admits(origin string) bool {
	return origin != "" && (slices.Contains(c.AllowedOrigins, "*") || slices.Contains(c.AllowedOrigins, origin))
}

// headers renders the fixed response headers once.
func (c *CORSConfig) headers() http.Header {
	h := http.Header{}
	set := func(key string, values []string) {
		if len(values) > 0 {
			h.Set(key, strings.Join(values, ", "))
		}
	}
	set("Access-Control-Allow-Methods", c.AllowedMethods)
	set("Access-Control-Allow-Headers", c.AllowedHeaders)
	set("Access-Control-Expose-Headers", c.ExposedHeaders)
	if c.AllowCredentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	return h
}

// CORS decorates responses to admitted origins and answers their preflight
// requests with 204. Requests from other origins pass through untouched.
func CORS(cfg *CORSConfig) Middleware {
	fixed := cfg.headers()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if !cfg.admits(origin) {
				next.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			for k, v := range fixed {
				h[k] = v
			}

			if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
				next.ServeHTTP(w, r)
				return
			}
			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
