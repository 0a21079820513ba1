package middleware

import (
	"net/http"

	"github.com/kbukum/medpipe/util"
)

// DefaultMaxBodySize applies when the configured size is empty or invalid.
const DefaultMaxBodySize = 1 << 20 // 1MB

// BodyLimit resolves a size string ("1MB", "512KB") to bytes.
func BodyLimit(maxSize string) int64 {
	return util.ParseSizeOr(maxSize, DefaultMaxBodySize)
}

// BodySizeLimit returns middleware that restricts the request body to the given
// size string. Reads past the limit fail with *http.MaxBytesError.
func BodySizeLimit(maxSize string) Middleware {
	size := BodyLimit(maxSize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, size)
			}
			next.ServeHTTP(w, r)
		})
	}
}
