package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateLimiter_BurstThenReject(t *testing.T) {
	limited := 0
	rl := NewRateLimiter(RateLimiterConfig{Name: "whisper", Rate: 1, Burst: 2, OnLimit: func(string) { limited++ }})
	if !rl.Allow() || !rl.Allow() {
		t.Fatal("burst of 2 should be allowed")
	}
	if rl.Allow() {
		t.Fatal("third call should be limited")
	}
	if limited != 1 {
		t.Errorf("expected OnLimit once, got %d", limited)
	}
	if err := rl.Execute(func() error { return nil }); !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestRateLimiter_Wait(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 100, Burst: 1})
	_ = rl.Allow()
	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Error("expected Wait to block for a refill")
	}
}

func TestRateLimiter_WaitRespectsContext(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.01, Burst: 1})
	_ = rl.Allow()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Fatal("expected error when the wait exceeds the deadline")
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.5})
	if rl.Rate() != 0.5 || rl.Burst() != 1 {
		t.Errorf("unexpected defaults: rate=%v burst=%d", rl.Rate(), rl.Burst())
	}
	if rl.Tokens() > 1 {
		t.Errorf("tokens should not exceed burst: %v", rl.Tokens())
	}
}
