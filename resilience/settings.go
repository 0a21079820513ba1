package resilience

import "time"

// Settings is the deployment-facing resilience configuration. Every pattern
// is off unless enabled, so a zero Settings leaves calls untouched.
type Settings struct {
	Retry struct {
		Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
		MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
		InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
		MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	} `yaml:"retry" mapstructure:"retry"`

	CircuitBreaker struct {
		Enabled     bool          `yaml:"enabled" mapstructure:"enabled"`
		MaxFailures int           `yaml:"max_failures" mapstructure:"max_failures"`
		Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	} `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`

	RateLimit struct {
		Enabled bool    `yaml:"enabled" mapstructure:"enabled"`
		Rate    float64 `yaml:"rate" mapstructure:"rate"`
		Burst   int     `yaml:"burst" mapstructure:"burst"`
	} `yaml:"rate_limit" mapstructure:"rate_limit"`

	Bulkhead struct {
		Enabled       bool          `yaml:"enabled" mapstructure:"enabled"`
		MaxConcurrent int           `yaml:"max_concurrent" mapstructure:"max_concurrent"`
		MaxWait       time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
	} `yaml:"bulkhead" mapstructure:"bulkhead"`
}

// RetryConfig returns the retry policy, or nil when disabled.
func (s Settings) RetryConfig(retryIf func(error) bool) *RetryConfig {
	if !s.Retry.Enabled || s.Retry.MaxAttempts <= 1 {
		return nil
	}
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = s.Retry.MaxAttempts
	if s.Retry.InitialBackoff > 0 {
		cfg.Backoff.Initial = s.Retry.InitialBackoff
	}
	if s.Retry.MaxBackoff > 0 {
		cfg.Backoff.Max = s.Retry.MaxBackoff
	}
	if retryIf != nil {
		cfg.RetryIf = retryIf
	}
	return &cfg
}

// CircuitBreakerConfig returns the breaker policy for name, or nil when disabled.
func (s Settings) CircuitBreakerConfig(name string) *CircuitBreakerConfig {
	if !s.CircuitBreaker.Enabled {
		return nil
	}
	cfg := DefaultCircuitBreakerConfig(name)
	if s.CircuitBreaker.MaxFailures > 0 {
		cfg.MaxFailures = s.CircuitBreaker.MaxFailures
	}
	if s.CircuitBreaker.Timeout > 0 {
		cfg.Timeout = s.CircuitBreaker.Timeout
	}
	return &cfg
}

// RateLimiterConfig returns the throttle for name, or nil when disabled.
func (s Settings) RateLimiterConfig(name string) *RateLimiterConfig {
	if !s.RateLimit.Enabled {
		return nil
	}
	cfg := DefaultRateLimiterConfig(name)
	if s.RateLimit.Rate > 0 {
		cfg.Rate = s.RateLimit.Rate
	}
	if s.RateLimit.Burst > 0 {
		cfg.Burst = s.RateLimit.Burst
	}
	return &cfg
}

// BulkheadConfig returns the concurrency cap for name, or nil when disabled.
func (s Settings) BulkheadConfig(name string) *BulkheadConfig {
	if !s.Bulkhead.Enabled {
		return nil
	}
	return &BulkheadConfig{Name: name, MaxConcurrent: s.Bulkhead.MaxConcurrent, MaxWait: s.Bulkhead.MaxWait}
}
