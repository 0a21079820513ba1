package observability

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultExportInterval is how often metrics are pushed.
const DefaultExportInterval = 15 * time.Second

// MeterConfig configures metric export.
type MeterConfig struct {
	Resource
	Endpoint string
	Insecure bool
	Interval time.Duration
}

// InitMeter installs a global meter provider pushing to an OTLP/HTTP
// collector every Interval, DefaultExportInterval when unset. Shut the
// provider down on exit to flush the last batch.
func InitMeter(ctx context.Context, cfg MeterConfig) (*sdkmetric.MeterProvider, error) {
	res, err := cfg.Resource.build()
	if err != nil {
		return nil, fmt.Errorf("metric resource: %w", err)
	}
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cmp.Or(cfg.Interval, DefaultExportInterval)))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res))
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}
