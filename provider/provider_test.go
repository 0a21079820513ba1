package provider_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kbukum/medpipe/errors"
	"github.com/kbukum/medpipe/logger"
	"github.com/kbukum/medpipe/observability"
	"github.com/kbukum/medpipe/provider"
	"github.com/kbukum/medpipe/resilience"
)

var errTransient = errors.New("transient failure")

type echoProvider struct{ name string }

func (p *echoProvider) Name() string                       { return p.name }
func (p *echoProvider) IsAvailable(_ context.Context) bool { return true }
func (p *echoProvider) Execute(_ context.Context, in string) (string, error) {
	return "echo:" + in, nil
}

type failingProvider struct {
	name      string
	calls     atomic.Int32
	failUntil int32
}

func (p *failingProvider) Name() string                       { return p.name }
func (p *failingProvider) IsAvailable(_ context.Context) bool { return true }
func (p *failingProvider) Execute(_ context.Context, in string) (string, error) {
	if n := p.calls.Add(1); n <= p.failUntil {
		return "", errTransient
	}
	return "ok:" + in, nil
}

type orderTracker struct {
	inner provider.RequestResponse[string, string]
	tag   string
	order *[]string
}

func (o *orderTracker) Name() string                         { return o.inner.Name() }
func (o *orderTracker) IsAvailable(ctx context.Context) bool { return o.inner.IsAvailable(ctx) }
func (o *orderTracker) Execute(ctx context.Context, in string) (string, error) {
	*o.order = append(*o.order, o.tag+":before")
	out, err := o.inner.Execute(ctx, in)
	*o.order = append(*o.order, o.tag+":after")
	return out, err
}

func fastRetry(attempts int) *resilience.RetryConfig {
	return &resilience.RetryConfig{MaxAttempts: attempts, Backoff: resilience.Backoff{Initial: time.Millisecond, Max: time.Millisecond}}
}

func TestFunc(t *testing.T) {
	p := provider.Func("upper", func(_ context.Context, in string) (string, error) {
		return strings.ToUpper(in), nil
	})
	out, err := p.Execute(context.Background(), "abc")
	if err != nil || out != "ABC" || p.Name() != "upper" || !p.IsAvailable(context.Background()) {
		t.Fatalf("unexpected: %q %v", out, err)
	}
}

func TestChain_Empty(t *testing.T) {
	wrapped := provider.Chain[string, string]()(&echoProvider{name: "test"})
	out, err := wrapped.Execute(context.Background(), "hello")
	if err != nil || out != "echo:hello" || wrapped.Name() != "test" {
		t.Fatalf("unexpected: %q %v", out, err)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(tag string) provider.Middleware[string, string] {
		return func(inner provider.RequestResponse[string, string]) provider.RequestResponse[string, string] {
			return &orderTracker{inner: inner, tag: tag, order: &order}
		}
	}

	wrapped := provider.Chain(mw("A"), mw("B"), mw("C"))(&echoProvider{name: "test"})
	if _, err := wrapped.Execute(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}

	want := []string{"A:before", "B:before", "C:before", "C:after", "B:after", "A:after"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", order, want)
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, "test", &buf)

	ctx := logger.ContextWithRequestID(context.Background(), "req-1")
	wrapped := provider.WithLogging[string, string](log)(&failingProvider{name: "whisper", failUntil: 1})

	if _, err := wrapped.Execute(ctx, "a"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := wrapped.Execute(ctx, "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"capability":"whisper"`, `"request_id":"req-1"`, "capability call failed", "capability call ok"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestWithTracingAndMetrics(t *testing.T) {
	metrics, err := observability.NewMetrics(observability.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	wrapped := provider.Chain(
		provider.WithTracing[string, string]("medpipe"),
		provider.WithLogging[string, string](logger.Nop()),
		provider.WithMetrics[string, string](metrics),
	)(&echoProvider{name: "full-stack"})

	out, err := wrapped.Execute(context.Background(), "hello")
	if err != nil || out != "echo:hello" {
		t.Fatalf("unexpected: %q %v", out, err)
	}
	if !wrapped.IsAvailable(context.Background()) || wrapped.Name() != "full-stack" {
		t.Error("middlewares must delegate Name and IsAvailable")
	}
}

func TestWithResilience_EmptyConfigPassthrough(t *testing.T) {
	p := &echoProvider{name: "raw"}
	if got := provider.WithResilience[string, string](p, provider.ResilienceConfig{}); got != provider.RequestResponse[string, string](p) {
		t.Fatal("empty config should return the provider unchanged")
	}
}

func TestWithResilience_RetryRecoversTransient(t *testing.T) {
	p := &failingProvider{name: "flaky", failUntil: 2}
	wrapped := provider.WithResilience[string, string](p, provider.ResilienceConfig{Retry: fastRetry(3)})

	out, err := wrapped.Execute(context.Background(), "x")
	if err != nil || out != "ok:x" || p.calls.Load() != 3 {
		t.Fatalf("got %q %v after %d calls", out, err, p.calls.Load())
	}
}

func TestWithResilience_RetryExhausted(t *testing.T) {
	p := &failingProvider{name: "down", failUntil: 100}
	wrapped := provider.WithResilience[string, string](p, provider.ResilienceConfig{Retry: fastRetry(2)})

	if _, err := wrapped.Execute(context.Background(), "x"); !errors.Is(err, errTransient) {
		t.Fatalf("expected the last upstream error, got %v", err)
	}
	if p.calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", p.calls.Load())
	}
}

func TestWithResilience_CircuitBreakerTrips(t *testing.T) {
	p := &failingProvider{name: "down", failUntil: 100}
	wrapped := provider.WithResilience[string, string](p, provider.ResilienceConfig{
		CircuitBreaker: &resilience.CircuitBreakerConfig{Name: "down", MaxFailures: 2, Timeout: time.Hour},
	})

	for i := 0; i < 2; i++ {
		_, _ = wrapped.Execute(context.Background(), "x")
	}
	if wrapped.IsAvailable(context.Background()) {
		t.Error("expected unavailable while open")
	}

	_, err := wrapped.Execute(context.Background(), "x")
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if _, ok := apperrors.AsAppError(err); ok {
		t.Errorf("open breaker must not carry a retrieval code, got %v", err)
	}
	if p.calls.Load() != 2 {
		t.Errorf("breaker should short-circuit, got %d calls", p.calls.Load())
	}
}

func TestWithResilience_RateLimiter(t *testing.T) {
	wrapped := provider.WithResilience[string, string](&echoProvider{name: "rl"}, provider.ResilienceConfig{
		RateLimiter: &resilience.RateLimiterConfig{Rate: 0.001, Burst: 1},
	})
	if _, err := wrapped.Execute(context.Background(), "a"); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := wrapped.Execute(ctx, "b"); err == nil {
		t.Fatal("expected the limiter to reject within the deadline")
	}
}

func TestWithResilience_Bulkhead(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	blocking := provider.Func("slow", func(_ context.Context, in string) (string, error) {
		close(started)
		<-release
		return in, nil
	})
	wrapped := provider.WithResilience(blocking, provider.ResilienceConfig{
		Bulkhead: &resilience.BulkheadConfig{MaxConcurrent: 1},
	})

	go func() { _, _ = wrapped.Execute(context.Background(), "a") }()
	<-started

	_, err := wrapped.Execute(context.Background(), "b")
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeRateLimited {
		t.Fatalf("expected RateLimited, got %v", err)
	}
	close(release)
}

func TestResilienceFromSettings(t *testing.T) {
	var s resilience.Settings
	if !provider.ResilienceFromSettings(s, "llm", nil).IsEmpty() {
		t.Fatal("zero settings should produce an empty config")
	}

	s.Retry.Enabled = true
	s.Retry.MaxAttempts = 3
	s.CircuitBreaker.Enabled = true
	cfg := provider.ResilienceFromSettings(s, "llm", nil)
	if cfg.Retry == nil || cfg.CircuitBreaker == nil || cfg.RateLimiter != nil || cfg.Bulkhead != nil {
		t.Errorf("unexpected config: %+v", cfg)
	}
}
