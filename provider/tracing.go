package provider

import (
	"context"

	"github.com/kbukum/medpipe/observability"
)

// WithTracing runs every call in a "capability.call" span tagged with the
// service and capability names.
func WithTracing[I, O any](serviceName string) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return decorate(inner, func(ctx context.Context, input I) (O, error) {
			ctx, span := observability.StartSpan(ctx, observability.SpanCapability)
			defer span.End()

			observability.SetSpanAttribute(ctx, observability.AttrServiceName, serviceName)
			observability.SetSpanAttribute(ctx, observability.AttrCapability, inner.Name())

			out, err := inner.Execute(ctx, input)
			if err != nil {
				observability.SetSpanError(ctx, err)
				observability.SetSpanAttribute(ctx, observability.AttrErrorCode, errorCode(err))
			}
			return out, err
		})
	}
}
