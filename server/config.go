package server

import (
	"cmp"
	"fmt"
	"net/http"
	"time"

	"github.com/kbukum/medpipe/server/middleware"
	"github.com/kbukum/medpipe/util"
)

// Config configures the listener, its timeouts and the handler-level
// middleware. Durations are read as "15s" or "2m30s".
type Config struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	// MaxBodySize bounds request bodies, e.g. "1MB".
	MaxBodySize string                     `yaml:"max_body_size" mapstructure:"max_body_size"`
	CORS        middleware.CORSConfig      `yaml:"cors" mapstructure:"cors"`
	RateLimit   middleware.RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ApplyDefaults fills unset fields. The write timeout outlasts the slowest
// stage, a download followed by transcription.
func (c *Config) ApplyDefaults() {
	c.Port = cmp.Or(c.Port, 8000)
	c.ReadTimeout = cmp.Or(c.ReadTimeout, 15*time.Second)
	c.WriteTimeout = cmp.Or(c.WriteTimeout, 150*time.Second)
	c.IdleTimeout = cmp.Or(c.IdleTimeout, time.Minute)
	c.MaxBodySize = cmp.Or(c.MaxBodySize, "1MB")

	cors := &c.CORS
	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{"*"}
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID}
	}
	if len(cors.ExposedHeaders) == 0 {
		cors.ExposedHeaders = []string{middleware.HeaderRequestID}
	}
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	for key, d := range map[string]time.Duration{
		"read_timeout":  c.ReadTimeout,
		"write_timeout": c.WriteTimeout,
		"idle_timeout":  c.IdleTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("server.%s must be non-negative (got: %s)", key, d)
		}
	}
	if _, err := util.ParseSize(c.MaxBodySize); err != nil {
		return fmt.Errorf("server.max_body_size: %w", err)
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("server.rate_limit.requests_per_minute must be non-negative (got: %d)", c.RateLimit.RequestsPerMinute)
	}
	return nil
}

// BodyLimit is MaxBodySize in bytes.
func (c *Config) BodyLimit() int64 {
	return middleware.BodyLimit(c.MaxBodySize)
}

func (c *Config) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
