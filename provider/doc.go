// Package provider defines the capability abstraction the pipeline stages
// depend on: a named RequestResponse[I, O] with availability reporting.
//
// Middleware[I, O] wraps a provider with cross-cutting behavior. Use Chain
// to compose them; the first middleware is outermost:
//
//	wrapped := provider.Chain(
//	    provider.WithTracing[In, Out]("medpipe"),
//	    provider.WithLogging[In, Out](log),
//	    provider.WithMetrics[In, Out](metrics),
//	)(provider.WithResilience(raw, cfg))
//
// Resilience policies (retry, circuit breaker, rate limit, bulkhead) are
// opt-in; ResilienceFromSettings maps deployment settings to a policy set.
package provider
