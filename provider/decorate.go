package provider

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/medpipe/errors"
	"github.com/kbukum/medpipe/resilience"
)

// decorated forwards identity and availability to inner and runs exec in
// place of inner.Execute.
type decorated[I, O any] struct {
	inner RequestResponse[I, O]
	exec  func(ctx context.Context, input I) (O, error)
}

func decorate[I, O any](inner RequestResponse[I, O], exec func(ctx context.Context, input I) (O, error)) RequestResponse[I, O] {
	return &decorated[I, O]{inner: inner, exec: exec}
}

func (d *decorated[I, O]) Name() string                         { return d.inner.Name() }
func (d *decorated[I, O]) IsAvailable(ctx context.Context) bool { return d.inner.IsAvailable(ctx) }

func (d *decorated[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return d.exec(ctx, input)
}

// errorCode classifies err for logs, spans and metrics.
func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "Canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "Timeout"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "CircuitOpen"
	}
	if e, ok := apperrors.AsAppError(err); ok {
		return string(e.Code)
	}
	return string(apperrors.ErrCodeInternal)
}
