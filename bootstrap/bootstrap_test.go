package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"os"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/medpipe/component"
	"github.com/kbukum/medpipe/config"
	"github.com/kbukum/medpipe/logger"
)

type testConfig struct {
	config.ServiceConfig
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{ServiceConfig: config.ServiceConfig{Name: name, Version: version, Environment: "development"}}
}

// stubComponent records its lifecycle into a shared trace.
type stubComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.Health
	trace    *[]string
	started  bool
	stopped  bool
}

func (m *stubComponent) Name() string { return m.name }

func (m *stubComponent) Start(context.Context) error {
	m.started = true
	m.note("start")
	return m.startErr
}

func (m *stubComponent) Stop(context.Context) error {
	m.stopped = true
	m.note("stop")
	return m.stopErr
}

func (m *stubComponent) Health(context.Context) component.Health {
	if m.health.Status == "" {
		return component.Health{Name: m.name, Status: component.StatusHealthy}
	}
	return m.health
}

func (m *stubComponent) note(event string) {
	if m.trace != nil {
		*m.trace = append(*m.trace, m.name+"."+event)
	}
}

func newTestApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	a, err := NewApp(newTestConfig("medpipe", "1.0"), append([]Option{WithLogger(logger.Nop()), WithoutSummary()}, opts...)...)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return a
}

func TestNewApp(t *testing.T) {
	a := newTestApp(t)
	if a.Name != "medpipe" || a.Version != "1.0" || a.Cfg.Name != "medpipe" {
		t.Errorf("identity = %s %s, cfg %q", a.Name, a.Version, a.Cfg.Name)
	}
	if a.Components == nil || a.Logger == nil || a.Summary == nil {
		t.Fatal("registry, logger and summary must be set")
	}
	if a.settings.grace != DefaultGracefulTimeout {
		t.Errorf("grace = %v, want default", a.settings.grace)
	}
	if a.settings.summary != nil {
		t.Error("summary not suppressed")
	}
}

func TestNewApp_ValidationFails(t *testing.T) {
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Environment: "development"}}
	if _, err := NewApp(cfg); err == nil {
		t.Fatal("expected error for a config without a name")
	}
}

func TestOptions(t *testing.T) {
	var buf bytes.Buffer
	custom := logger.NewDefault("custom")
	s := newSettings([]Option{
		WithLogger(custom),
		WithGracefulTimeout(5 * time.Second),
		WithoutSummary(),
		WithSummaryOutput(&buf),
	})
	if s.logger != custom || s.grace != 5*time.Second || s.summary != &buf {
		t.Errorf("settings = %+v", s)
	}
	if newSettings(nil).summary != os.Stderr {
		t.Error("summary should default to stderr")
	}
}

func TestRegisterComponent_Duplicate(t *testing.T) {
	a := newTestApp(t)
	if err := a.RegisterComponent(&stubComponent{name: "whisper"}); err != nil {
		t.Fatal(err)
	}
	if err := a.RegisterComponent(&stubComponent{name: "whisper"}); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if a.Components.Get("whisper") == nil {
		t.Error("component not registered")
	}
}

func TestHookSet_RunStopsAtFirstError(t *testing.T) {
	var h hookSet
	var calls []int
	h[phaseReady] = []Hook{
		func(context.Context) error { calls = append(calls, 1); return nil },
		func(context.Context) error { calls = append(calls, 2); return errors.New("boom") },
		func(context.Context) error { calls = append(calls, 3); return nil },
	}
	err := h.run(context.Background(), phaseReady)
	if err == nil || err.Error() != "ready hook #2: boom" {
		t.Errorf("err = %v", err)
	}
	if !slices.Equal(calls, []int{1, 2}) {
		t.Errorf("calls = %v", calls)
	}
	if err := h.run(context.Background(), phaseStart); err != nil {
		t.Errorf("empty phase: %v", err)
	}
}

func TestReadyCheck(t *testing.T) {
	tests := []struct {
		name    string
		health  []component.Health
		wantErr string
	}{
		{"empty", nil, ""},
		{"all healthy", []component.Health{{Name: "a", Status: component.StatusHealthy}}, ""},
		{"degraded", []component.Health{
			{Name: "a", Status: component.StatusHealthy},
			{Name: "whisper", Status: component.StatusDegraded, Message: "no API key configured"},
		}, "not ready: whisper degraded: no API key configured"},
		{"unhealthy", []component.Health{{Name: "b", Status: component.StatusUnhealthy}}, "not ready: b unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t)
			for _, h := range tt.health {
				_ = a.RegisterComponent(&stubComponent{name: h.Name, health: h})
			}
			err := a.ReadyCheck(context.Background())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestRunTask_Lifecycle(t *testing.T) {
	a := newTestApp(t)
	var trace []string
	hook := func(name string) Hook {
		return func(context.Context) error { trace = append(trace, name); return nil }
	}
	_ = a.RegisterComponent(&stubComponent{name: "telemetry", trace: &trace})
	_ = a.RegisterComponent(&stubComponent{name: "whisper", trace: &trace})
	a.OnStart(hook("on-start"))
	a.OnConfigure(func(_ context.Context, app *App[*testConfig]) error {
		if app.Cfg.Name != "medpipe" {
			t.Errorf("configure sees %q", app.Cfg.Name)
		}
		trace = append(trace, "configure")
		return nil
	})
	a.OnReady(hook("on-ready"))
	a.OnStop(hook("on-stop"))

	err := a.RunTask(context.Background(), func(context.Context) error {
		trace = append(trace, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}
	want := []string{
		"telemetry.start", "whisper.start", "on-start", "configure", "on-ready",
		"task", "on-stop", "whisper.stop", "telemetry.stop",
	}
	if !slices.Equal(trace, want) {
		t.Errorf("trace = %v\nwant    %v", trace, want)
	}
}

func TestRunTask_Errors(t *testing.T) {
	fail := func(context.Context) error { return errors.New("hook failed") }
	tests := []struct {
		name      string
		setup     func(*App[*testConfig], *stubComponent)
		task      error
		wantErr   string
		wantStart bool
		wantStop  bool
	}{
		{"task error", nil, errors.New("task failed"), "task failed", true, true},
		{"component start", func(_ *App[*testConfig], c *stubComponent) { c.startErr = errors.New("bind") }, nil, "start components", true, false},
		{"start hook", func(a *App[*testConfig], _ *stubComponent) { a.OnStart(fail) }, nil, "start hook #1", true, true},
		{"configure", func(a *App[*testConfig], _ *stubComponent) {
			a.OnConfigure(func(context.Context, *App[*testConfig]) error { return errors.New("wiring") })
		}, nil, "configure: wiring", true, true},
		{"ready hook", func(a *App[*testConfig], _ *stubComponent) { a.OnReady(fail) }, nil, "ready hook #1", true, true},
		{"stop hook", func(a *App[*testConfig], _ *stubComponent) { a.OnStop(fail) }, nil, "stop hook #1", true, true},
		{"component stop", func(_ *App[*testConfig], c *stubComponent) { c.stopErr = errors.New("flush") }, nil, "flush", true, true},
		{"task error wins over stop error", func(_ *App[*testConfig], c *stubComponent) { c.stopErr = errors.New("flush") }, errors.New("task failed"), "task failed", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t)
			c := &stubComponent{name: "telemetry"}
			_ = a.RegisterComponent(c)
			if tt.setup != nil {
				tt.setup(a, c)
			}
			err := a.RunTask(context.Background(), func(context.Context) error { return tt.task })
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
			if c.started != tt.wantStart || c.stopped != tt.wantStop {
				t.Errorf("started=%v stopped=%v, want %v/%v", c.started, c.stopped, tt.wantStart, tt.wantStop)
			}
		})
	}
}

func TestRunTask_ContextCanceled(t *testing.T) {
	a := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	err := a.RunTask(ctx, func(taskCtx context.Context) error {
		cancel()
		<-taskCtx.Done()
		return taskCtx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRun_ReturnsWhenContextDone(t *testing.T) {
	a := newTestApp(t)
	c := &stubComponent{name: "http-server"}
	_ = a.RegisterComponent(c)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !c.stopped {
		t.Error("component not stopped after Run returned")
	}
}

func TestWaitForSignal_ContextDone(t *testing.T) {
	a := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if sig := a.WaitForSignal(ctx); sig != nil {
		t.Errorf("sig = %v, want nil", sig)
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	a := newTestApp(t)
	c := &stubComponent{name: "telemetry"}
	_ = a.RegisterComponent(c)
	if err := a.RunTask(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	c.stopped = false
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if c.stopped {
		t.Error("an already stopped component was stopped again")
	}
}

// describedComponent adds a description and routes.
type describedComponent struct {
	stubComponent
	desc   component.Description
	routes []component.Route
}

func (m *describedComponent) Describe() component.Description { return m.desc }
func (m *describedComponent) Routes() []component.Route       { return m.routes }

func TestSummaryWrite(t *testing.T) {
	s := NewSummary("medpipe", "1.2.0")
	s.SetStartupDuration(120 * time.Millisecond)
	s.TrackSetting("extraction.model", "gpt-4")
	s.TrackSetting("extraction.api_key", "sk-a****")

	registry := component.NewRegistry(nil)
	_ = registry.Register(&describedComponent{
		stubComponent: stubComponent{
			name:   "http-server",
			health: component.Health{Name: "http-server", Status: component.StatusHealthy},
		},
		desc: component.Description{Name: "HTTP Server", Type: "server", Details: "127.0.0.1:8000"},
		routes: []component.Route{
			{Method: "POST", Path: "/extract", Handler: "api.Extract"},
			{Method: "GET", Path: "/health", Handler: "endpoint.Health"},
		},
	})
	_ = registry.Register(&stubComponent{
		name:   "whisper",
		health: component.Health{Name: "whisper", Status: component.StatusDegraded, Message: "no API key"},
	})

	var buf bytes.Buffer
	s.Write(&buf, registry)
	out := buf.String()

	for _, want := range []string{
		"medpipe 1.2.0 started in 0.12s",
		"extraction.api_key: sk-a****",
		"HTTP Server [server]: 127.0.0.1:8000 healthy",
		"whisper degraded (no API key)",
		"Routes (2)",
		"/extract -> api.Extract",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if got := s.Settings(); len(got) != 2 || got[0].Key != "extraction.model" {
		t.Errorf("Settings() = %v", got)
	}
}

func TestSummaryWrite_NilRegistry(t *testing.T) {
	var buf bytes.Buffer
	NewSummary("medpipe", "dev").Write(&buf, nil)
	if !strings.Contains(buf.String(), "medpipe dev started") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestDisplaySummary_UsesConfiguredWriter(t *testing.T) {
	var buf bytes.Buffer
	app, err := NewApp(newTestConfig("medpipe", "1.0"), WithLogger(logger.Nop()), WithSummaryOutput(&buf))
	if err != nil {
		t.Fatal(err)
	}
	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "medpipe 1.0 started") {
		t.Errorf("summary not written: %q", buf.String())
	}
}

func TestTreePrefix(t *testing.T) {
	if p := treePrefix(2, 3); p != "└──" {
		t.Errorf("expected '└──' for last item, got %q", p)
	}
	if p := treePrefix(0, 3); p != "├──" {
		t.Errorf("expected '├──' for non-last item, got %q", p)
	}
}

func TestHealthStatusIcon(t *testing.T) {
	tests := []struct {
		status component.HealthStatus
		icon   string
	}{
		{component.StatusHealthy, "✅"},
		{component.StatusDegraded, "⚠️"},
		{component.StatusUnhealthy, "❌"},
		{"unknown", "❓"},
	}
	for _, tc := range tests {
		if got := healthStatusIcon(tc.status); got != tc.icon {
			t.Errorf("healthStatusIcon(%q) = %q, expected %q", tc.status, got, tc.icon)
		}
	}
}
