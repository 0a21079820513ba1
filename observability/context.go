package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Operation outcomes.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusCanceled = "canceled"
)

// Operation is one entry-point invocation: a span plus the request metrics
// recorded when it ends. Stages reach it through the context to count
// repairs and anomalies against the same request.
type Operation struct {
	Service   string
	Name      string
	RequestID string
	Started   time.Time

	metrics *Metrics
	span    trace.Span
}

type operationKey struct{}

// StartOperation opens a span named spanName and stores the operation in the
// returned context. metrics may be nil.
func StartOperation(ctx context.Context, service, name, requestID, spanName string, metrics *Metrics) (context.Context, *Operation) {
	op := &Operation{Service: service, Name: name, RequestID: requestID, Started: time.Now(), metrics: metrics}
	ctx = context.WithValue(ctx, operationKey{}, op)
	ctx, op.span = StartSpan(ctx, spanName, trace.WithAttributes(
		attribute.String(AttrServiceName, service),
		attribute.String(AttrOperationName, name),
		attribute.String(AttrRequestID, requestID),
	))
	if metrics != nil {
		metrics.RecordRequestStart(ctx)
	}
	return ctx, op
}

// OperationFromContext returns the running operation, or nil.
func OperationFromContext(ctx context.Context) *Operation {
	op, _ := ctx.Value(operationKey{}).(*Operation)
	return op
}

// End closes the span and records the request. code is the client-facing
// error code and is empty on success.
func (op *Operation) End(ctx context.Context, status, code string, err error) {
	elapsed := op.Elapsed()
	if err != nil {
		op.span.RecordError(err)
		if status == StatusError {
			op.span.SetStatus(codes.Error, code)
		}
	}
	if code != "" {
		op.span.SetAttributes(attribute.String(AttrErrorCode, code))
	}
	op.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, elapsed.Milliseconds()),
	)
	op.span.End()

	if op.metrics == nil {
		return
	}
	op.metrics.RecordRequestEnd(ctx, op.Service, op.Name, status, elapsed)
	if code != "" {
		op.metrics.RecordError(ctx, code, op.Name)
	}
}

// Elapsed is the time since the operation started.
func (op *Operation) Elapsed() time.Duration {
	return time.Since(op.Started)
}

// RecordRepair counts one extraction repair prompt. Safe on a nil operation.
func (op *Operation) RecordRepair(ctx context.Context) {
	if op != nil && op.metrics != nil {
		op.metrics.RecordRepair(ctx)
	}
}

// RecordAnomaly counts n corrected values of field. Safe on a nil operation.
func (op *Operation) RecordAnomaly(ctx context.Context, field string, n int) {
	if op != nil && op.metrics != nil {
		op.metrics.RecordAnomaly(ctx, field, n)
	}
}
