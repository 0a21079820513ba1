package llm

import (
	"time"

	"github.com/kbukum/medpipe/httpclient"
	"github.com/kbukum/medpipe/resilience"
)

// Config holds configuration for creating an LLM adapter.
// The Dialect field selects the provider mapping.
type Config struct {
	// Name identifies this adapter instance (e.g., "extraction-llm").
	Name string `yaml:"name" mapstructure:"name"`

	// Dialect selects the provider mapping ("openai", "perplexity", "ollama").
	Dialect string `yaml:"dialect" mapstructure:"dialect"`

	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`

	// Temperature is the default sampling temperature.
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`

	// MaxTokens is the default maximum tokens for responses. 0 means provider default.
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`

	// Timeout bounds one HTTP round trip. Defaults to 120s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// APIKey is sent as a Bearer token when Auth is not set.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	Auth    *httpclient.AuthConfig `yaml:"-" mapstructure:"-"`
	Headers map[string]string      `yaml:"headers" mapstructure:"headers"`

	Retry          *resilience.RetryConfig          `yaml:"-" mapstructure:"-"`
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"-" mapstructure:"-"`
	RateLimiter    *resilience.RateLimiterConfig    `yaml:"-" mapstructure:"-"`
}

func (c Config) httpConfig() httpclient.Config {
	return httpclient.Config{
		Name:           c.Name,
		BaseURL:        c.BaseURL,
		Timeout:        c.Timeout,
		Auth:           c.Auth,
		Headers:        c.Headers,
		Retry:          c.Retry,
		CircuitBreaker: c.CircuitBreaker,
		RateLimiter:    c.RateLimiter,
	}
}

func (c *Config) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 120 * time.Second
	}
	if c.Name == "" && c.Dialect != "" {
		c.Name = c.Dialect + "-llm"
	}
	if c.Auth == nil {
		c.Auth = httpclient.BearerAuth(c.APIKey)
	}
}
