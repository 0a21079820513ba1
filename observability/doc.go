// Package observability wires OpenTelemetry into the pipeline.
//
// InitTracer and InitMeter install global providers that export over
// OTLP/HTTP; both are optional, and without them spans and instruments
// are no-ops. Settings maps the configuration file onto their configs:
//
//	res := observability.Resource{Service: "medpipe", Version: v, Environment: env}
//	tp, err := observability.InitTracer(ctx, settings.TracerConfig(res))
//	defer tp.Shutdown(ctx)
//
// Each inbound request is wrapped in an Operation, which owns its span and
// records request metrics when it ends. Stages reach it through the context
// to count repair prompts and corrected values.
package observability
