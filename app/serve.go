package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/medpipe/api"
	"github.com/kbukum/medpipe/bootstrap"
	"github.com/kbukum/medpipe/resilience"
	"github.com/kbukum/medpipe/server"
	"github.com/kbukum/medpipe/server/middleware"
	"github.com/kbukum/medpipe/util"
)

// Setup builds the pipeline for a and registers its components. Components
// must be registered before a starts them, so call Setup before Run or RunTask.
func Setup(ctx context.Context, a *bootstrap.App[*Config]) (*Pipeline, error) {
	p, err := Build(ctx, a.Cfg, a.Logger)
	if err != nil {
		return nil, err
	}
	for _, c := range p.Components {
		if err := a.RegisterComponent(c); err != nil {
			return nil, err
		}
	}
	trackSettings(a.Summary, a.Cfg)
	return p, nil
}

// Mount creates the HTTP server for p and registers it on a.
func Mount(a *bootstrap.App[*Config], p *Pipeline) (*server.Server, error) {
	cfg := a.Cfg
	srv := server.New(cfg.Server, a.Logger)
	srv.ApplyMiddleware(api.RenderPanic, api.ErrorHandler(a.Logger))

	var extra []gin.HandlerFunc
	if cfg.Server.RateLimit.Enabled {
		extra = append(extra, middleware.RateLimit(cfg.Server.RateLimit))
	}
	api.Register(srv.GinEngine(), p.Handler, extra...)

	srv.RegisterDefaultEndpoints(cfg.Name, cfg.Environment, a.Components.HealthAll, map[string]any{
		"pipeline": []string{"transcribe", "extract", "diagnose"},
		"models": map[string]string{
			"transcription": cfg.Transcription.Whisper.Model,
			"extraction":    cfg.Extraction.LLM.Model,
			"diagnosis":     cfg.Diagnosis.Generator.Model,
			"treatment":     cfg.Diagnosis.Recommender.Model,
		},
	})

	if err := a.RegisterComponent(server.NewComponent(srv)); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	return srv, nil
}

func trackSettings(s *bootstrap.Summary, cfg *Config) {
	s.TrackSetting("environment", cfg.Environment)
	s.TrackSetting("transcription.max_file_size", cfg.Transcription.MaxFileSize)
	s.TrackSetting("transcription.download_timeout", cfg.Transcription.DownloadTimeout.String())
	s.TrackSetting("transcription.whisper.api_key", masked(cfg.Transcription.Whisper.APIKey))
	s.TrackSetting("extraction.model", cfg.Extraction.LLM.Dialect+"/"+cfg.Extraction.LLM.Model)
	s.TrackSetting("extraction.api_key", masked(cfg.Extraction.LLM.APIKey))
	s.TrackSetting("extraction.repair_attempts", strconv.Itoa(cfg.Extraction.RepairAttempts))
	s.TrackSetting("diagnosis.model", cfg.Diagnosis.Generator.Dialect+"/"+cfg.Diagnosis.Generator.Model)
	s.TrackSetting("diagnosis.api_key", masked(cfg.Diagnosis.Generator.APIKey))
	if util.Deref(cfg.Diagnosis.Treatment.Enabled, true) {
		s.TrackSetting("treatment.model", cfg.Diagnosis.Recommender.Dialect+"/"+cfg.Diagnosis.Recommender.Model)
		s.TrackSetting("treatment.api_key", masked(cfg.Diagnosis.Recommender.APIKey))
	} else {
		s.TrackSetting("treatment", "disabled")
	}
	s.TrackSetting("resilience", resilienceSummary(cfg.Resilience))
}

func masked(key string) string {
	if key == "" {
		return "(not set)"
	}
	return util.MaskSecret(key, 4)
}

func resilienceSummary(r resilience.Settings) string {
	var on []string
	if r.Retry.Enabled {
		on = append(on, "retry x"+strconv.Itoa(r.Retry.MaxAttempts))
	}
	if r.CircuitBreaker.Enabled {
		on = append(on, "circuit breaker")
	}
	if r.RateLimit.Enabled {
		on = append(on, "rate limit")
	}
	if r.Bulkhead.Enabled {
		on = append(on, "bulkhead")
	}
	if len(on) == 0 {
		return "off"
	}
	return strings.Join(on, ", ")
}
