package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics is the pipeline's instrument set. Every instrument name carries the
// "medpipe." prefix.
type Metrics struct {
	requests  metric.Int64Counter
	latency   metric.Float64Histogram
	inflight  metric.Int64UpDownCounter
	calls     metric.Int64Counter
	callTime  metric.Float64Histogram
	errs      metric.Int64Counter
	repairs   metric.Int64Counter
	anomalies metric.Int64Counter
}

type instruments struct {
	meter metric.Meter
	errs  []error
}

func (in *instruments) counter(name, desc string) metric.Int64Counter {
	c, err := in.meter.Int64Counter("medpipe."+name, metric.WithDescription(desc))
	in.fail(name, err)
	return c
}

func (in *instruments) seconds(name, desc string) metric.Float64Histogram {
	h, err := in.meter.Float64Histogram("medpipe."+name, metric.WithDescription(desc), metric.WithUnit("s"))
	in.fail(name, err)
	return h
}

func (in *instruments) gauge(name, desc string) metric.Int64UpDownCounter {
	g, err := in.meter.Int64UpDownCounter("medpipe."+name, metric.WithDescription(desc))
	in.fail(name, err)
	return g
}

func (in *instruments) fail(name string, err error) {
	if err != nil {
		in.errs = append(in.errs, fmt.Errorf("instrument %s: %w", name, err))
	}
}

// NewMetrics registers the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	in := &instruments{meter: meter}
	m := &Metrics{
		requests:  in.counter("request.total", "Requests per endpoint and outcome"),
		latency:   in.seconds("request.duration", "Request duration"),
		inflight:  in.gauge("request.active", "Requests in flight"),
		calls:     in.counter("capability.total", "Capability calls per outcome"),
		callTime:  in.seconds("capability.duration", "Capability call duration"),
		errs:      in.counter("error.total", "Errors by code and component"),
		repairs:   in.counter("extraction.repair.total", "Extraction repair prompts issued"),
		anomalies: in.counter("diagnosis.anomaly.total", "Out-of-range generator values corrected"),
	}
	if err := errors.Join(in.errs...); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) RecordRequestStart(ctx context.Context) {
	m.inflight.Add(ctx, 1)
}

// RecordRequestEnd closes out a request opened with RecordRequestStart.
func (m *Metrics) RecordRequestEnd(ctx context.Context, service, endpoint, status string, d time.Duration) {
	m.inflight.Add(ctx, -1)
	where := attribute.NewSet(attribute.String("service", service), attribute.String("endpoint", endpoint))
	m.requests.Add(ctx, 1, metric.WithAttributeSet(where), metric.WithAttributes(attribute.String("status", status)))
	m.latency.Record(ctx, d.Seconds(), metric.WithAttributeSet(where))
}

// RecordOperation records one call to a remote capability.
func (m *Metrics) RecordOperation(ctx context.Context, capability, operation, status string, d time.Duration) {
	what := attribute.NewSet(attribute.String("capability", capability), attribute.String("operation", operation))
	m.calls.Add(ctx, 1, metric.WithAttributeSet(what), metric.WithAttributes(attribute.String("status", status)))
	m.callTime.Record(ctx, d.Seconds(), metric.WithAttributeSet(what))
}

func (m *Metrics) RecordError(ctx context.Context, code, component string) {
	m.errs.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code), attribute.String("component", component)))
}

func (m *Metrics) RecordRepair(ctx context.Context) {
	m.repairs.Add(ctx, 1)
}

// RecordAnomaly counts n corrected values of field; n <= 0 is ignored.
func (m *Metrics) RecordAnomaly(ctx context.Context, field string, n int) {
	if n > 0 {
		m.anomalies.Add(ctx, int64(n), metric.WithAttributes(attribute.String("field", field)))
	}
}
