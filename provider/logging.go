package provider

import (
	"context"
	"time"

	"github.com/kbukum/medpipe/logger"
)

// WithLogging logs every call with the capability name, duration and, on
// failure, the error code. Success is logged at debug level.
func WithLogging[I, O any](log *logger.Logger) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return decorate(inner, func(ctx context.Context, input I) (O, error) {
			start := time.Now()
			out, err := inner.Execute(ctx, input)

			fields := logger.Fields(
				logger.FieldCapability, inner.Name(),
				logger.FieldDuration, time.Since(start).Milliseconds(),
			)
			l := log.WithContext(ctx)
			if err != nil {
				fields[logger.FieldError] = err.Error()
				fields[logger.FieldErrorCode] = errorCode(err)
				l.Warn("capability call failed", fields)
			} else {
				l.Debug("capability call ok", fields)
			}
			return out, err
		})
	}
}
