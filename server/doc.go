// Package server provides the HTTP server for medpipe: a Gin engine served
// over HTTP/1.1 and cleartext HTTP/2, wrapped as a lifecycle component.
//
// # Middleware
//
// Handler-level middleware (server/middleware) wraps the whole engine:
//
//   - RequestID: X-Request-Id generation and propagation into the context
//   - RequestLogger: request logging with status and duration
//   - CORS: cross-origin headers and preflight answers
//   - BodySizeLimit: request body ceiling
//
// Gin-level middleware:
//
//   - Recovery: panic recovery with a pluggable renderer
//   - RateLimit: per-client token buckets
//
// # Endpoints
//
// Built-in endpoints (server/endpoint): /health, /livez, /readyz, /version
// and /info.
package server
