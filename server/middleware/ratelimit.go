package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/medpipe/errors"
	"github.com/kbukum/medpipe/resilience"
)

// RateLimitConfig configures per-client inbound rate limiting.
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// RequestsPerMinute is the sustained rate allowed per key.
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	// Burst is how many requests a key may send at once.
	Burst int `yaml:"burst" mapstructure:"burst"`
	// KeyFunc extracts the rate limit key from a request. Defaults to client IP.
	KeyFunc func(*gin.Context) string `yaml:"-" mapstructure:"-"`
}

const idleLimiterTTL = 10 * time.Minute

// RateLimit returns a Gin middleware with one token bucket per key. A
// rejected request is aborted with a RateLimited error for the error handler
// to render.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(1, cfg.RequestsPerMinute/6)
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPBasedKey
	}
	limiters := newKeyedLimiters(resilience.RateLimiterConfig{
		Name:  "inbound",
		Rate:  float64(cfg.RequestsPerMinute) / 60,
		Burst: cfg.Burst,
	})

	return func(c *gin.Context) {
		if !limiters.get(cfg.KeyFunc(c)).Allow() {
			_ = c.Error(apperrors.RateLimited())
			c.Abort()
			return
		}
		c.Next()
	}
}

// IPBasedKey extracts the client IP for use as a rate limit key.
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}

type limiterEntry struct {
	limiter  *resilience.RateLimiter
	lastSeen time.Time
}

type keyedLimiters struct {
	mu        sync.Mutex
	cfg       resilience.RateLimiterConfig
	entries   map[string]*limiterEntry
	lastSweep time.Time
}

func newKeyedLimiters(cfg resilience.RateLimiterConfig) *keyedLimiters {
	return &keyedLimiters{cfg: cfg, entries: make(map[string]*limiterEntry), lastSweep: time.Now()}
}

func (k *keyedLimiters) get(key string) *resilience.RateLimiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := time.Now()
	if now.Sub(k.lastSweep) > idleLimiterTTL {
		for key, e := range k.entries {
			if now.Sub(e.lastSeen) > idleLimiterTTL {
				delete(k.entries, key)
			}
		}
		k.lastSweep = now
	}

	e, ok := k.entries[key]
	if !ok {
		e = &limiterEntry{limiter: resilience.NewRateLimiter(k.cfg)}
		k.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter
}
