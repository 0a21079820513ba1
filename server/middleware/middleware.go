package middleware

import "net/http"

// Middleware is handler-level middleware. It runs outside the gin engine,
// so unmatched routes pass through it too.
type Middleware func(http.Handler) http.Handler

// Chain nests middlewares so the first one sees the request first.
func Chain(mws ...Middleware) Middleware {
	return func(h http.Handler) http.Handler {
		for i := range mws {
			h = mws[len(mws)-1-i](h)
		}
		return h
	}
}
