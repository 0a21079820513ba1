package app

import (
	"fmt"
	"time"

	"github.com/kbukum/medpipe/api"
	"github.com/kbukum/medpipe/config"
	"github.com/kbukum/medpipe/diagnosis"
	"github.com/kbukum/medpipe/extraction"
	"github.com/kbukum/medpipe/llm"
	"github.com/kbukum/medpipe/llm/ollama"
	"github.com/kbukum/medpipe/llm/openai"
	"github.com/kbukum/medpipe/observability"
	"github.com/kbukum/medpipe/resilience"
	"github.com/kbukum/medpipe/retriever"
	"github.com/kbukum/medpipe/server"
	"github.com/kbukum/medpipe/transcription"
	"github.com/kbukum/medpipe/transcription/whisper"
	"github.com/kbukum/medpipe/version"
)

// ServiceName is the default service name.
const ServiceName = "medpipe"

// Config is the complete medpipe configuration. It is loaded once, defaulted
// and validated, then handed to constructors; nothing reads it afterwards.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config          `yaml:"server" mapstructure:"server"`
	Retriever     retriever.Config       `yaml:"retriever" mapstructure:"retriever"`
	Transcription TranscriptionConfig    `yaml:"transcription" mapstructure:"transcription"`
	Extraction    ExtractionConfig       `yaml:"extraction" mapstructure:"extraction"`
	Diagnosis     DiagnosisConfig        `yaml:"diagnosis" mapstructure:"diagnosis"`
	Resilience    resilience.Settings    `yaml:"resilience" mapstructure:"resilience"`
	Observability observability.Settings `yaml:"observability" mapstructure:"observability"`

	// OpenAIAPIKey fills any unset key of an openai capability.
	OpenAIAPIKey string `yaml:"openai_api_key" mapstructure:"openai_api_key"`
	// PerplexityAPIKey fills any unset key of a perplexity capability.
	PerplexityAPIKey string `yaml:"perplexity_api_key" mapstructure:"perplexity_api_key"`
}

// TranscriptionConfig is the transcription stage plus its speech-to-text backend.
type TranscriptionConfig struct {
	transcription.Config `yaml:",inline" mapstructure:",squash"`
	Whisper              whisper.Config `yaml:"whisper" mapstructure:"whisper"`
}

// ExtractionConfig is the extraction stage plus its language model.
type ExtractionConfig struct {
	extraction.Config `yaml:",inline" mapstructure:",squash"`
	LLM               llm.Config `yaml:"llm" mapstructure:"llm"`
}

// DiagnosisConfig is the diagnosis stage plus its two language models.
type DiagnosisConfig struct {
	diagnosis.Config `yaml:",inline" mapstructure:",squash"`
	Generator        llm.Config `yaml:"generator" mapstructure:"generator"`
	Recommender      llm.Config `yaml:"recommender" mapstructure:"recommender"`
}

// ApplyDefaults fills every unset value, including API key fallbacks.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	if c.Version == "" {
		c.Version = version.Version
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()

	c.Transcription.Config.ApplyDefaults()
	c.Extraction.Config.ApplyDefaults()
	c.Diagnosis.Config.ApplyDefaults()

	// The retriever never waits longer or reads more than the stage allows.
	if c.Retriever.Timeout <= 0 {
		c.Retriever.Timeout = c.Transcription.DownloadTimeout
	}
	if c.Retriever.MaxFileSize == "" {
		c.Retriever.MaxFileSize = c.Transcription.MaxFileSize
	}
	c.Retriever.ApplyDefaults()

	if c.Transcription.Whisper.APIKey == "" {
		c.Transcription.Whisper.APIKey = c.OpenAIAPIKey
	}
	if c.Transcription.Whisper.Timeout <= 0 {
		c.Transcription.Whisper.Timeout = c.Transcription.Timeout
	}
	c.Transcription.Whisper.ApplyDefaults()

	c.applyLLMDefaults(&c.Extraction.LLM, "extraction-llm", openai.DialectName, "gpt-4", c.Extraction.Timeout)
	c.applyLLMDefaults(&c.Diagnosis.Generator, "diagnosis-llm", openai.DialectName, "gpt-4", c.Diagnosis.Timeout)
	c.applyLLMDefaults(&c.Diagnosis.Recommender, "treatment-llm", openai.PerplexityDialectName, "sonar", c.Diagnosis.Treatment.Timeout)
}

func (c *Config) applyLLMDefaults(l *llm.Config, name, dialect, model string, timeout time.Duration) {
	if l.Name == "" {
		l.Name = name
	}
	if l.Dialect == "" {
		l.Dialect = dialect
	}
	if l.Model == "" {
		l.Model = model
	}
	if l.Timeout <= 0 {
		l.Timeout = timeout
	}
	switch l.Dialect {
	case openai.DialectName:
		if l.BaseURL == "" {
			l.BaseURL = openai.DefaultBaseURL
		}
		if l.APIKey == "" {
			l.APIKey = c.OpenAIAPIKey
		}
	case openai.PerplexityDialectName:
		if l.BaseURL == "" {
			l.BaseURL = openai.PerplexityBaseURL
		}
		if l.APIKey == "" {
			l.APIKey = c.PerplexityAPIKey
		}
	case ollama.DialectName:
		if l.BaseURL == "" {
			l.BaseURL = ollama.DefaultBaseURL
		}
	}
}

// Validate checks the configuration after defaults.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Transcription.Config.Validate(); err != nil {
		return err
	}
	if err := c.Diagnosis.Config.Validate(); err != nil {
		return err
	}
	if c.Extraction.MinTextLength > c.Extraction.MaxTextLength {
		return fmt.Errorf("extraction: min_text_length %d exceeds max_text_length %d",
			c.Extraction.MinTextLength, c.Extraction.MaxTextLength)
	}
	for key, l := range map[string]llm.Config{
		"extraction.llm":        c.Extraction.LLM,
		"diagnosis.generator":   c.Diagnosis.Generator,
		"diagnosis.recommender": c.Diagnosis.Recommender,
	} {
		if _, err := llm.GetDialect(l.Dialect); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if l.BaseURL == "" {
			return fmt.Errorf("%s.base_url is required for dialect %q", key, l.Dialect)
		}
	}
	return nil
}

// Limits returns the request bounds the entry points enforce.
func (c *Config) Limits() api.Limits {
	return api.Limits{
		MinTextLength:       c.Extraction.MinTextLength,
		MaxTextLength:       c.Extraction.MaxTextLength,
		DefaultMaxDuration:  c.Transcription.DefaultMaxDuration,
		MaxDurationCeiling:  c.Transcription.MaxDurationCeiling,
		DefaultMaxDiagnoses: c.Diagnosis.DefaultMaxDiagnoses,
		MaxDiagnosesCeiling: c.Diagnosis.MaxDiagnosesCeiling,
	}
}
