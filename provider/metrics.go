package provider

import (
	"context"
	"time"

	"github.com/kbukum/medpipe/observability"
)

// WithMetrics records the count and duration of every call, and an error
// counter keyed by error code.
func WithMetrics[I, O any](metrics *observability.Metrics) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return decorate(inner, func(ctx context.Context, input I) (O, error) {
			start := time.Now()
			out, err := inner.Execute(ctx, input)

			status := "ok"
			if err != nil {
				status = "error"
				metrics.RecordError(ctx, errorCode(err), inner.Name())
			}
			metrics.RecordOperation(ctx, inner.Name(), "execute", status, time.Since(start))
			return out, err
		})
	}
}
