package resilience

import (
	"errors"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned by Execute when no token is available.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimiterConfig is a token bucket refilled at Rate tokens per second
// holding at most Burst tokens.
type RateLimiterConfig struct {
	Name  string
	Rate  float64
	Burst int
	// OnLimit runs each time Allow or Execute turns a call away.
	OnLimit func(name string)
}

// DefaultRateLimiterConfig allows 10 calls per second with bursts of 20.
func DefaultRateLimiterConfig(name string) RateLimiterConfig {
	return RateLimiterConfig{Name: name, Rate: 10, Burst: 20}
}

// RateLimiter is a token bucket. Wait, Tokens and Burst come from the
// embedded x/time limiter.
type RateLimiter struct {
	*rate.Limiter
	name    string
	onLimit func(string)
}

// NewRateLimiter builds a limiter. A missing rate means 10/s and a missing
// burst means one second's worth of tokens, at least one.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(1, int(cfg.Rate))
	}
	return &RateLimiter{
		Limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		name:    cfg.Name,
		onLimit: cfg.OnLimit,
	}
}

// Allow takes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	ok := rl.Limiter.Allow()
	if !ok && rl.onLimit != nil {
		rl.onLimit(rl.name)
	}
	return ok
}

// Execute runs fn when a token is available and fails with ErrRateLimited
// otherwise.
func (rl *RateLimiter) Execute(fn func() error) error {
	if !rl.Allow() {
		return ErrRateLimited
	}
	return fn()
}

// Rate is the refill rate in tokens per second.
func (rl *RateLimiter) Rate() float64 { return float64(rl.Limit()) }
