package provider

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/medpipe/errors"
	"github.com/kbukum/medpipe/resilience"
)

// ResilienceConfig selects the policies wrapped around a provider. Nil
// fields are off, so the zero value is a passthrough.
type ResilienceConfig struct {
	CircuitBreaker *resilience.CircuitBreakerConfig
	Retry          *resilience.RetryConfig
	RateLimiter    *resilience.RateLimiterConfig
	Bulkhead       *resilience.BulkheadConfig
}

// ResilienceFromSettings resolves the deployment settings for the provider name.
func ResilienceFromSettings(s resilience.Settings, name string, retryIf func(error) bool) ResilienceConfig {
	return ResilienceConfig{
		CircuitBreaker: s.CircuitBreakerConfig(name),
		Retry:          s.RetryConfig(retryIf),
		RateLimiter:    s.RateLimiterConfig(name),
		Bulkhead:       s.BulkheadConfig(name),
	}
}

// IsEmpty reports whether no policy is enabled.
func (c ResilienceConfig) IsEmpty() bool {
	return c == ResilienceConfig{}
}

type attempt[O any] func() (O, error)

// layer wraps next with one policy.
type layer[O any] func(ctx context.Context, next attempt[O]) (O, error)

// WithResilience wraps p so that every call passes, outermost first, the
// rate limiter, the bulkhead, the circuit breaker and retry. Throttling
// rejections become AppErrors; the provider's own errors pass through. An
// empty config returns p itself.
func WithResilience[I, O any](p RequestResponse[I, O], cfg ResilienceConfig) RequestResponse[I, O] {
	if cfg.IsEmpty() {
		return p
	}
	r := &resilientRR[I, O]{inner: p}

	if rc := cfg.RateLimiter; rc != nil {
		rl := resilience.NewRateLimiter(*rc)
		r.layers = append(r.layers, func(ctx context.Context, next attempt[O]) (O, error) {
			if err := rl.Wait(ctx); err != nil {
				var zero O
				return zero, rejection(err)
			}
			return next()
		})
	}
	if bc := cfg.Bulkhead; bc != nil {
		bh := resilience.NewBulkhead(*bc)
		r.layers = append(r.layers, func(ctx context.Context, next attempt[O]) (O, error) {
			return guard(next, func(fn func() error) error { return bh.Execute(ctx, fn) })
		})
	}
	if cc := cfg.CircuitBreaker; cc != nil {
		r.breaker = resilience.NewCircuitBreaker(*cc)
		r.layers = append(r.layers, func(_ context.Context, next attempt[O]) (O, error) {
			return guard(next, r.breaker.Execute)
		})
	}
	if rc := cfg.Retry; rc != nil {
		policy := *rc
		r.layers = append(r.layers, func(ctx context.Context, next attempt[O]) (O, error) {
			return resilience.Retry(ctx, policy, next)
		})
	}
	return r
}

// guard runs next under a policy that may refuse to call it. A refusal is
// converted; an error from next itself is returned as is.
func guard[O any](next attempt[O], policy func(func() error) error) (O, error) {
	var out O
	var callErr error
	called := false
	err := policy(func() error {
		called = true
		out, callErr = next()
		return callErr
	})
	if !called && err != nil {
		return out, rejection(err)
	}
	return out, callErr
}

type resilientRR[I, O any] struct {
	inner   RequestResponse[I, O]
	layers  []layer[O]
	breaker *resilience.CircuitBreaker
}

func (r *resilientRR[I, O]) Name() string { return r.inner.Name() }

// IsAvailable is false while the breaker is open.
func (r *resilientRR[I, O]) IsAvailable(ctx context.Context) bool {
	if r.breaker != nil && r.breaker.State() == resilience.StateOpen {
		return false
	}
	return r.inner.IsAvailable(ctx)
}

func (r *resilientRR[I, O]) Execute(ctx context.Context, in I) (O, error) {
	call := attempt[O](func() (O, error) { return r.inner.Execute(ctx, in) })
	for i := len(r.layers) - 1; i >= 0; i-- {
		l, next := r.layers[i], call
		call = func() (O, error) { return l(ctx, next) }
	}
	return call()
}

// rejection maps a throttling refusal to an AppError. An open breaker is a
// capability failure and stays a plain error for the calling stage to wrap.
// Context errors stay as they are so a client disconnect is not reported as
// a backend failure.
func rejection(err error) error {
	switch {
	case errors.Is(err, resilience.ErrRateLimited):
		return apperrors.RateLimited().WithCause(err)
	case errors.Is(err, resilience.ErrBulkheadFull), errors.Is(err, resilience.ErrBulkheadTimeout):
		return apperrors.RateLimited().WithCause(err).WithDetail("reason", "concurrency limit reached")
	}
	return err
}
