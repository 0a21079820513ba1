package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// DefaultEndpoint is the local OTLP/HTTP collector.
const DefaultEndpoint = "localhost:4318"

// Resource identifies the process in exported telemetry.
type Resource struct {
	Service     string
	Version     string
	Environment string
}

func (r Resource) build() (*resource.Resource, error) {
	// Schemaless so the merge with the SDK default never hits a schema URL conflict.
	return resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(r.Service),
		semconv.ServiceVersion(r.Version),
		attribute.String("environment", r.Environment),
	))
}

// TracerConfig configures span export.
type TracerConfig struct {
	Resource
	// Endpoint is the collector host:port.
	Endpoint string
	Insecure bool
	// SampleRate is the fraction of new traces kept, 0..1.
	SampleRate float64
}

// InitTracer installs a global tracer provider exporting over OTLP/HTTP and
// the W3C trace-context propagator. Shut the provider down on exit to flush.
func InitTracer(ctx context.Context, cfg TracerConfig) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	res, err := cfg.Resource.build()
	if err != nil {
		return nil, fmt.Errorf("trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(samplerFor(cfg.SampleRate))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}

func samplerFor(rate float64) sdktrace.Sampler {
	if rate >= 1 {
		return sdktrace.AlwaysSample()
	}
	if rate <= 0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.TraceIDRatioBased(rate)
}
