package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kbukum/medpipe/logger"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-Id"

const maxRequestIDLength = 128

// RequestID makes sure every request has an ID. A caller-supplied
// X-Request-Id is kept; otherwise a UUID is generated. The ID is echoed in the
// response header and stored in the request context for loggers.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" || len(id) > maxRequestIDLength {
				id = uuid.NewString()
				r.Header.Set(HeaderRequestID, id)
			}
			w.Header().Set(HeaderRequestID, id)
			ctx := logger.ContextWithRequestID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
