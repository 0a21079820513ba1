// Package app is the composition root: it turns a validated Config into
// capabilities, stages, entry points and the components whose lifecycle the
// bootstrap manages.
package app

import (
	"context"
	"fmt"

	"github.com/kbukum/medpipe/api"
	"github.com/kbukum/medpipe/component"
	"github.com/kbukum/medpipe/diagnosis"
	apperrors "github.com/kbukum/medpipe/errors"
	"github.com/kbukum/medpipe/extraction"
	"github.com/kbukum/medpipe/httpclient"
	"github.com/kbukum/medpipe/llm"
	"github.com/kbukum/medpipe/logger"
	"github.com/kbukum/medpipe/observability"
	"github.com/kbukum/medpipe/provider"
	"github.com/kbukum/medpipe/retriever"
	"github.com/kbukum/medpipe/transcription"
	"github.com/kbukum/medpipe/transcription/whisper"
	"github.com/kbukum/medpipe/util"
)

// Pipeline is the wired application.
type Pipeline struct {
	Handler *api.Handler
	Metrics *observability.Metrics
	// Components are telemetry providers and capability health checks, in
	// start order.
	Components []component.Component
}

// Build wires every stage from cfg. cfg must already be defaulted and
// validated.
func Build(ctx context.Context, cfg *Config, log *logger.Logger) (*Pipeline, error) {
	if log == nil {
		log = logger.Nop()
	}
	p := &Pipeline{}

	if err := p.initTelemetry(ctx, cfg, log.WithComponent("observability")); err != nil {
		return nil, err
	}

	fetcher, err := retriever.New(cfg.Retriever, log)
	if err != nil {
		return nil, fmt.Errorf("retriever: %w", err)
	}

	stt, err := whisper.New(cfg.Transcription.Whisper)
	if err != nil {
		return nil, err
	}
	sttCap := wrap[transcription.Request, transcription.Response](stt, cfg, log, p.Metrics)
	p.addCapability(sttCap, stt, "speech-to-text", stt.Name(), cfg.Transcription.Whisper.APIKey, stt.Hosted())

	extractor, err := p.completer(cfg, cfg.Extraction.LLM, log)
	if err != nil {
		return nil, err
	}
	generator, err := p.completer(cfg, cfg.Diagnosis.Generator, log)
	if err != nil {
		return nil, err
	}
	var recommender llm.Completer
	if util.Deref(cfg.Diagnosis.Treatment.Enabled, true) {
		if recommender, err = p.completer(cfg, cfg.Diagnosis.Recommender, log); err != nil {
			return nil, err
		}
	}

	tStage, err := transcription.NewStage(cfg.Transcription.Config, fetcher, sttCap, log)
	if err != nil {
		return nil, err
	}
	eStage, err := extraction.NewStage(cfg.Extraction.Config, extractor, log)
	if err != nil {
		return nil, err
	}
	dStage, err := diagnosis.NewStage(cfg.Diagnosis.Config, generator, recommender, log)
	if err != nil {
		return nil, err
	}

	p.Handler, err = api.NewHandler(
		api.Stages{Transcriber: tStage, Extractor: eStage, Diagnoser: dStage},
		cfg.Limits(), log,
		api.WithMetrics(cfg.Name, p.Metrics),
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// initTelemetry installs the tracer and meter providers that are enabled.
// Their shutdown runs when the matching component stops.
func (p *Pipeline) initTelemetry(ctx context.Context, cfg *Config, log *logger.Logger) error {
	obs := cfg.Observability
	res := observability.Resource{Service: cfg.Name, Version: cfg.Version, Environment: cfg.Environment}
	if obs.Tracing.Enabled {
		tc := obs.TracerConfig(res)
		tp, err := observability.InitTracer(ctx, tc)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		log.Info("tracing enabled", logger.Fields("endpoint", tc.Endpoint, "sample_rate", tc.SampleRate))
		p.Components = append(p.Components, component.NewCheck("tracing",
			component.Description{Name: "OTLP Tracing", Type: "telemetry", Details: tc.Endpoint}, nil).
			OnStop(tp.Shutdown))
	}
	if obs.Metrics.Enabled {
		mc := obs.MeterConfig(res)
		mp, err := observability.InitMeter(ctx, mc)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		if p.Metrics, err = observability.NewMetrics(observability.Meter(cfg.Name)); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		log.Info("metrics enabled", logger.Fields("endpoint", mc.Endpoint, "interval", mc.Interval.String()))
		p.Components = append(p.Components, component.NewCheck("metrics",
			component.Description{Name: "OTLP Metrics", Type: "telemetry", Details: mc.Endpoint}, nil).
			OnStop(mp.Shutdown))
	}
	return nil
}

func (p *Pipeline) completer(cfg *Config, lc llm.Config, log *logger.Logger) (llm.Completer, error) {
	adapter, err := llm.New(lc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", lc.Name, err)
	}
	c := wrap[llm.CompletionRequest, llm.CompletionResponse](adapter, cfg, log, p.Metrics)
	hosted := lc.Dialect != "ollama"
	p.addCapability(c, adapter, "llm", lc.Dialect+" "+adapter.Model(), lc.APIKey, hosted)
	return c, nil
}

// addCapability registers a health check for a remote capability. A hosted
// capability without a key reports degraded rather than failing startup so
// the other stages stay usable.
func (p *Pipeline) addCapability(rr provider.Provider, closer provider.Closeable, kind, details, apiKey string, needsKey bool) {
	name := rr.Name()
	if needsKey && apiKey != "" {
		details += " (key " + util.MaskSecret(apiKey, 4) + ")"
	}
	check := component.NewCheck(name, component.Description{Type: kind, Details: details},
		func(ctx context.Context) component.Health {
			switch {
			case needsKey && apiKey == "":
				return component.Health{Status: component.StatusDegraded, Message: "no API key configured"}
			case !rr.IsAvailable(ctx):
				return component.Health{Status: component.StatusDegraded, Message: "unavailable"}
			}
			return component.Health{Status: component.StatusHealthy}
		})
	if closer != nil {
		check.OnStop(closer.Close)
	}
	p.Components = append(p.Components, check)
}

// wrap applies the deployment's resilience policy and the logging, tracing
// and metrics middleware to a capability.
func wrap[I, O any](rr provider.RequestResponse[I, O], cfg *Config, log *logger.Logger, metrics *observability.Metrics) provider.RequestResponse[I, O] {
	rr = provider.WithResilience(rr, provider.ResilienceFromSettings(cfg.Resilience, rr.Name(), retryable))

	mws := []provider.Middleware[I, O]{
		provider.WithLogging[I, O](log),
		provider.WithTracing[I, O](cfg.Name),
	}
	if metrics != nil {
		mws = append(mws, provider.WithMetrics[I, O](metrics))
	}
	return provider.Chain(mws...)(rr)
}

// retryable retries transport failures and upstream errors marked retryable.
func retryable(err error) bool {
	if httpclient.IsRetryable(err) {
		return true
	}
	if e, ok := apperrors.AsAppError(err); ok {
		return e.Retryable
	}
	return false
}
