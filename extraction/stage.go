// Package extraction turns consultation text into a validated
// medical.MedicalInfo using a chat-completion capability.
package extraction

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/kbukum/medpipe/errors"
	"github.com/kbukum/medpipe/llm"
	"github.com/kbukum/medpipe/logger"
	"github.com/kbukum/medpipe/medical"
	"github.com/kbukum/medpipe/observability"
	"github.com/kbukum/medpipe/util"
	"github.com/kbukum/medpipe/validation"
)

// Config bounds the extraction stage.
type Config struct {
	MinTextLength int `yaml:"min_text_length" mapstructure:"min_text_length"`
	MaxTextLength int `yaml:"max_text_length" mapstructure:"max_text_length"`
	// RepairAttempts is how many times a schema-invalid answer is re-prompted.
	RepairAttempts int           `yaml:"repair_attempts" mapstructure:"repair_attempts"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Temperature    float64       `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens      int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ApplyDefaults fills unset fields. A negative RepairAttempts disables repair.
func (c *Config) ApplyDefaults() {
	if c.MinTextLength <= 0 {
		c.MinTextLength = 10
	}
	if c.MaxTextLength <= 0 {
		c.MaxTextLength = 20000
	}
	if c.RepairAttempts == 0 {
		c.RepairAttempts = 1
	}
	if c.RepairAttempts < 0 {
		c.RepairAttempts = 0
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Temperature == 0 {
		c.Temperature = 0.1
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1000
	}
}

// Stage extracts structured records. It is stateless and safe for concurrent use.
type Stage struct {
	capability llm.Completer
	cfg        Config
	log        *logger.Logger
}

// NewStage creates an extraction stage.
func NewStage(cfg Config, capability llm.Completer, log *logger.Logger) (*Stage, error) {
	if capability == nil {
		return nil, errors.New("extraction: capability is required")
	}
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Stage{capability: capability, cfg: cfg, log: log.WithComponent("extraction")}, nil
}

// CheckText validates consultation text against the configured bounds.
func (s *Stage) CheckText(text string) error {
	if err := validation.New().Text("text", text, s.cfg.MinTextLength, s.cfg.MaxTextLength).Validate(); err != nil {
		return err
	}
	return nil
}

// Extract returns the structured record for text. A schema-invalid answer is
// re-prompted up to RepairAttempts times before ExtractionError is returned.
func (s *Stage) Extract(ctx context.Context, text string) (*medical.MedicalInfo, error) {
	if err := s.CheckText(text); err != nil {
		return nil, err
	}
	text = util.SanitizeText(text)
	log := s.log.WithContext(ctx)

	messages := []llm.Message{{Role: llm.RoleUser, Content: extractionPrompt(text)}}
	attempts := 1 + s.cfg.RepairAttempts

	var lastErr *medical.SchemaError
	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := s.complete(ctx, messages)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, ctx.Err()
			}
			log.Error("extraction call failed", logger.Fields(
				logger.FieldAttempt, attempt,
				logger.FieldError, err.Error(),
			))
			return nil, apperrors.Extraction("The medical information could not be extracted.", err)
		}

		info, err := medical.ParseMedicalInfo([]byte(llm.ExtractJSON(content)))
		if err == nil {
			observability.SetSpanAttribute(ctx, "extraction.attempts", attempt)
			log.Info("extraction complete", logger.Fields(
				logger.FieldAttempt, attempt,
				"symptoms", len(info.Symptoms),
			))
			return info, nil
		}

		if !errors.As(err, &lastErr) {
			return nil, apperrors.Internal(err)
		}
		log.Warn("extraction output does not match schema", logger.Fields(
			logger.FieldAttempt, attempt,
			logger.FieldErrorCode, apperrors.ErrCodeMalformedUpstream,
			logger.FieldError, lastErr.Error(),
		))
		if attempt < attempts {
			recordRepair(ctx)
			messages = append(messages,
				llm.Message{Role: llm.RoleAssistant, Content: content},
				llm.Message{Role: llm.RoleUser, Content: repairPrompt(lastErr)},
			)
		}
	}

	return nil, apperrors.Extraction("The extraction service returned data that does not match the medical record schema.", lastErr).
		WithDetail("attempts", attempts)
}

func (s *Stage) complete(ctx context.Context, messages []llm.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.capability.Execute(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages:     messages,
		Temperature:  s.cfg.Temperature,
		MaxTokens:    s.cfg.MaxTokens,
		JSONMode:     true,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func recordRepair(ctx context.Context) {
	observability.OperationFromContext(ctx).RecordRepair(ctx)
}
