package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/medpipe/logger"
)

// StatusClientClosedRequest is logged when the caller went away mid-request.
const StatusClientClosedRequest = 499

var quietPaths = map[string]bool{
	"/health":  true,
	"/livez":   true,
	"/readyz":  true,
	"/metrics": true,
}

// RequestLogger logs every request with method, path, status, response size
// and duration. Probe paths are skipped.
func RequestLogger(log *logger.Logger) Middleware {
	log = log.WithComponent("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if quietPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)

			status := rec.Status()
			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				logger.FieldStatus, status,
				logger.FieldBytes, rec.written,
				logger.FieldDuration, time.Since(start).Milliseconds(),
			)
			if id := r.Header.Get(HeaderRequestID); id != "" {
				fields[logger.FieldRequestID] = id
			}
			logByStatus(log, fields, status)
		})
	}
}

// logByStatus logs request fields at the level matching the status class.
func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status == StatusClientClosedRequest:
		log.Info("Request abandoned by client", fields)
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Debug("Request completed", fields)
	}
}
