package transcription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/kbukum/medpipe/errors"
	"github.com/kbukum/medpipe/logger"
	"github.com/kbukum/medpipe/retriever"
	"github.com/kbukum/medpipe/util"
)

// UnknownLanguage is reported when neither the backend nor the caller names a language.
const UnknownLanguage = "unknown"

// Config bounds the transcription stage.
type Config struct {
	// DownloadTimeout caps the audio download.
	DownloadTimeout time.Duration `yaml:"download_timeout" mapstructure:"download_timeout"`
	// MaxFileSize caps the audio download, e.g. "50MB".
	MaxFileSize string `yaml:"max_file_size" mapstructure:"max_file_size"`
	// Timeout caps one speech-to-text call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// DefaultMaxDuration applies when a request names no max_duration.
	DefaultMaxDuration int `yaml:"default_max_duration" mapstructure:"default_max_duration"`
	// MaxDurationCeiling is the largest max_duration a request may ask for.
	MaxDurationCeiling int `yaml:"max_duration_ceiling" mapstructure:"max_duration_ceiling"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = 30 * time.Second
	}
	if c.MaxFileSize == "" {
		c.MaxFileSize = "50MB"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.DefaultMaxDuration <= 0 {
		c.DefaultMaxDuration = 300
	}
	if c.MaxDurationCeiling <= 0 {
		c.MaxDurationCeiling = 1800
	}
}

// Validate checks the configuration after defaults.
func (c *Config) Validate() error {
	if _, err := util.ParseSize(c.MaxFileSize); err != nil {
		return fmt.Errorf("transcription: max_file_size: %w", err)
	}
	if c.DefaultMaxDuration > c.MaxDurationCeiling {
		return fmt.Errorf("transcription: default_max_duration %d exceeds ceiling %d",
			c.DefaultMaxDuration, c.MaxDurationCeiling)
	}
	return nil
}

// Stage downloads audio and transcribes it. It holds no per-request state and
// is safe for concurrent use.
type Stage struct {
	fetcher         retriever.Fetcher
	capability      Capability
	downloadTimeout time.Duration
	maxBytes        int64
	timeout         time.Duration
	log             *logger.Logger
}

// NewStage creates a transcription stage.
func NewStage(cfg Config, fetcher retriever.Fetcher, capability Capability, log *logger.Logger) (*Stage, error) {
	if fetcher == nil || capability == nil {
		return nil, errors.New("transcription: fetcher and capability are required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	maxBytes, _ := util.ParseSize(cfg.MaxFileSize)
	if log == nil {
		log = logger.Nop()
	}
	return &Stage{
		fetcher:         fetcher,
		capability:      capability,
		downloadTimeout: cfg.DownloadTimeout,
		maxBytes:        maxBytes,
		timeout:         cfg.Timeout,
		log:             log.WithComponent("transcription"),
	}, nil
}

// Transcribe downloads audioURL and converts it to text. language is an
// optional accepted language name; maxDuration is in seconds.
func (s *Stage) Transcribe(ctx context.Context, audioURL, language string, maxDuration float64) (*Result, error) {
	requested := NormalizeLanguage(language)
	var hint string
	if requested != "" {
		code, ok := LanguageCode(requested)
		if !ok {
			return nil, apperrors.InvalidField("language", "must be one of: "+strings.Join(Languages(), ", "))
		}
		hint = code
	}
	if maxDuration <= 0 {
		return nil, apperrors.InvalidField("max_duration", "must be positive")
	}

	log := s.log.WithContext(ctx)

	res, err := s.fetcher.Fetch(ctx, audioURL, s.downloadTimeout, s.maxBytes)
	if err != nil {
		if canceled(ctx) {
			return nil, ctx.Err()
		}
		return nil, apperrors.Transcription("The audio file could not be retrieved.", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.capability.Execute(callCtx, Request{
		Audio:       res.Data,
		FileName:    res.FileName,
		ContentType: ContentTypeFor(res.FileName),
		Language:    hint,
	})
	if err != nil {
		if canceled(ctx) {
			return nil, ctx.Err()
		}
		log.Error("speech-to-text failed", logger.Fields(
			logger.FieldCapability, s.capability.Name(),
			logger.FieldError, err.Error(),
		))
		return nil, apperrors.Transcription("The audio could not be transcribed.", err)
	}

	var duration float64
	if resp.Duration != nil {
		duration = *resp.Duration
		if duration < 0 {
			log.Warn("negative duration reported", logger.Fields(
				logger.FieldErrorCode, apperrors.ErrCodeMalformedUpstream,
				"duration_seconds", duration,
			))
			duration = 0
		}
		if duration > maxDuration {
			return nil, apperrors.DurationExceeded(duration, maxDuration)
		}
	}

	detected := NormalizeLanguage(resp.Language)
	if detected == "" {
		detected = requested
	}
	if detected == "" {
		detected = UnknownLanguage
	}

	model := resp.Model
	if model == "" {
		model = s.capability.Name()
	}

	log.Info("transcription complete", logger.Fields(
		logger.FieldBytes, res.Size(),
		logger.FieldDuration, time.Since(start).Milliseconds(),
		"audio_seconds", duration,
	))

	return &Result{
		Transcription:    strings.TrimSpace(resp.Text),
		DurationSeconds:  duration,
		LanguageDetected: detected,
		ModelUsed:        model,
	}, nil
}

func canceled(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}
