package httpclient

import (
	"errors"
	"time"

	"github.com/kbukum/medpipe/resilience"
)

const (
	defaultTimeout = 30 * time.Second
	// DefaultMaxResponseBytes caps buffered response bodies when a request
	// sets no limit of its own.
	DefaultMaxResponseBytes int64 = 10 << 20
)

// Config configures an Adapter. The resilience policies are built in code,
// never read from files; each one is off while nil.
type Config struct {
	// Name labels the adapter in logs and health output.
	Name    string `yaml:"name" mapstructure:"name"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Timeout bounds each attempt, not the whole retried call.
	Timeout          time.Duration     `yaml:"timeout" mapstructure:"timeout"`
	UserAgent        string            `yaml:"user_agent" mapstructure:"user_agent"`
	MaxResponseBytes int64             `yaml:"max_response_bytes" mapstructure:"max_response_bytes"`
	Headers          map[string]string `yaml:"headers" mapstructure:"headers"`

	Auth           *AuthConfig                      `yaml:"-" mapstructure:"-"`
	Retry          *resilience.RetryConfig          `yaml:"-" mapstructure:"-"`
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"-" mapstructure:"-"`
	RateLimiter    *resilience.RateLimiterConfig    `yaml:"-" mapstructure:"-"`
}

func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "http"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = DefaultMaxResponseBytes
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("httpclient: timeout must be positive"))
	}
	if c.MaxResponseBytes <= 0 {
		errs = append(errs, errors.New("httpclient: max_response_bytes must be positive"))
	}
	return errors.Join(errs...)
}

// TransientRetry is the default retry policy limited to failures IsRetryable
// accepts.
func TransientRetry() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}
