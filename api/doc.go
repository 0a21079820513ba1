// Package api holds the three pipeline entry points (transcribe, extract,
// diagnose), the request schemas they validate against, and the single
// error handler that turns failures into envelopes.
//
// Entry points never chain stages: each request is validated, passed to
// exactly one stage, and answered with an envelope.Response. Failures are
// attached to the gin context with c.Error and rendered by ErrorHandler,
// which must be installed as engine middleware:
//
//	srv.ApplyMiddleware(api.RenderPanic, api.ErrorHandler(log))
//	api.Register(srv.GinEngine(), handler)
package api
