package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// Backoff is an exponential delay schedule: Initial, then multiplied by
// Factor per attempt, randomized by ±Jitter and capped at Max.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
	// Jitter is a fraction of the delay, 0..1.
	Jitter float64
}

var defaultBackoff = Backoff{Initial: 200 * time.Millisecond, Max: 5 * time.Second, Factor: 2, Jitter: 0.1}

// Delay is the wait after the given failed attempt, counting from 1.
func (b Backoff) Delay(attempt int) time.Duration {
	d := float64(b.Initial) * math.Pow(b.Factor, float64(attempt-1))
	if b.Jitter > 0 {
		d *= 1 + b.Jitter*(2*rand.Float64()-1)
	}
	return time.Duration(math.Max(0, math.Min(d, float64(b.Max))))
}

func (b *Backoff) fill() {
	if b.Initial <= 0 {
		b.Initial = defaultBackoff.Initial
	}
	if b.Max <= 0 {
		b.Max = defaultBackoff.Max
	}
	if b.Factor <= 0 {
		b.Factor = defaultBackoff.Factor
	}
}

// RetryConfig is a retry policy. MaxAttempts counts the first call.
type RetryConfig struct {
	MaxAttempts int
	Backoff     Backoff
	// RetryIf decides whether an error is worth another attempt.
	RetryIf func(error) bool
	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultRetryConfig makes three attempts, 200ms apart and doubling.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, Backoff: defaultBackoff, RetryIf: DefaultRetryIf}
}

// DefaultRetryIf retries everything but context cancellation and expiry.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Retry calls fn until it succeeds, RetryIf rejects the error or the attempts
// run out, and returns the last result. Waiting between attempts honors ctx.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	cfg.Backoff.fill()
	if cfg.RetryIf == nil {
		cfg.RetryIf = DefaultRetryIf
	}
	attempts := max(cfg.MaxAttempts, 1)

	var zero T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		out, err := fn()
		if err == nil || attempt == attempts || !cfg.RetryIf(err) {
			return out, err
		}

		wait := cfg.Backoff.Delay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, ctx.Err()
		case <-t.C:
		}
	}
}
