// Package whisper implements the transcription capability against an
// OpenAI-compatible /audio/transcriptions endpoint.
package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kbukum/medpipe/httpclient"
	"github.com/kbukum/medpipe/transcription"
)

const (
	// ProviderName is the default capability name.
	ProviderName = "whisper"

	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"

	defaultModel   = "whisper-1"
	defaultTimeout = 60 * time.Second
	transcribePath = "/audio/transcriptions"
)

// Config holds configuration for the Whisper capability.
type Config struct {
	Name    string        `yaml:"name" mapstructure:"name"`
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Model   string        `yaml:"model" mapstructure:"model"`
	APIKey  string        `yaml:"api_key" mapstructure:"api_key"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ProviderName
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Provider implements transcription.Capability.
type Provider struct {
	cfg  Config
	http *httpclient.Adapter
}

// New creates a Whisper capability.
func New(cfg Config, opts ...httpclient.Option) (*Provider, error) {
	cfg.ApplyDefaults()
	a, err := httpclient.New(httpclient.Config{
		Name:    cfg.Name,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Auth:    httpclient.BearerAuth(cfg.APIKey),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}
	return &Provider{cfg: cfg, http: a}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return p.cfg.Name }

// Hosted reports whether the provider talks to the OpenAI API, which needs
// a key. Self-hosted endpoints with a custom base URL do not.
func (p *Provider) Hosted() bool { return p.cfg.BaseURL == DefaultBaseURL }

// IsAvailable reports whether the provider has the credentials it needs.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	if p.cfg.APIKey == "" && p.Hosted() {
		return false
	}
	return p.http.IsAvailable(ctx)
}

// modelUsed labels OpenAI-hosted models with their vendor; a self-hosted
// server reports the bare model name.
func (p *Provider) modelUsed() string {
	if p.Hosted() {
		return "openai-" + p.cfg.Model
	}
	return p.cfg.Model
}

// Close releases idle connections.
func (p *Provider) Close(ctx context.Context) error { return p.http.Close(ctx) }

// Execute uploads the audio and returns the transcription.
func (p *Provider) Execute(ctx context.Context, req transcription.Request) (transcription.Response, error) {
	resp, err := p.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   transcribePath,
		Body: &httpclient.MultipartBody{
			Fields: map[string]string{
				"model":           p.cfg.Model,
				"response_format": "verbose_json",
				"language":        req.Language,
			},
			Files: []httpclient.FilePart{{
				Field:       "file",
				Name:        req.FileName,
				ContentType: req.ContentType,
				Data:        req.Audio,
			}},
		},
	})
	if err != nil {
		return transcription.Response{}, fmt.Errorf("whisper: request: %w", err)
	}

	var out verboseResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return transcription.Response{}, fmt.Errorf("whisper: decode response: %w", err)
	}

	return transcription.Response{
		Text:     out.Text,
		Duration: out.Duration,
		Language: out.Language,
		Model:    p.modelUsed(),
	}, nil
}

// verboseResponse is the verbose_json body. Segments are not used.
type verboseResponse struct {
	Text     string   `json:"text"`
	Duration *float64 `json:"duration"`
	Language string   `json:"language"`
}
