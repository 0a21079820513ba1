package component

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// mockComponent implements Component for testing.
type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   Health
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	if m.events != nil {
		*m.events = append(*m.events, "start:"+m.name)
	}
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	if m.events != nil {
		*m.events = append(*m.events, "stop:"+m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) Health {
	return m.health
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(&mockComponent{name: "http-server"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mockComponent{name: "http-server"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestGet(t *testing.T) {
	r := NewRegistry(nil)
	c := &mockComponent{name: "telemetry"}
	_ = r.Register(c)

	if got := r.Get("telemetry"); got != c {
		t.Errorf("Get returned %v", got)
	}
	if got := r.Get("missing"); got != nil {
		t.Errorf("expected nil for unknown component, got %v", got)
	}
	if all := r.All(); len(all) != 1 {
		t.Errorf("All returned %d components", len(all))
	}
}

func TestStartStopOrder(t *testing.T) {
	r := NewRegistry(nil)
	var events []string
	for _, name := range []string{"telemetry", "whisper", "http-server"} {
		_ = r.Register(&mockComponent{name: name, events: &events})
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	want := []string{
		"start:telemetry", "start:whisper", "start:http-server",
		"stop:http-server", "stop:whisper", "stop:telemetry",
	}
	if fmt.Sprint(events) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestStartAllRollsBack(t *testing.T) {
	r := NewRegistry(nil)
	var events []string
	boom := errors.New("address already in use")
	_ = r.Register(&mockComponent{name: "telemetry", events: &events})
	_ = r.Register(&mockComponent{name: "http-server", events: &events, startErr: boom})
	_ = r.Register(&mockComponent{name: "never", events: &events})

	err := r.StartAll(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped start error, got %v", err)
	}
	want := []string{"start:telemetry", "start:http-server", "stop:telemetry"}
	if fmt.Sprint(events) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", events, want)
	}

	// Nothing is left running.
	events = events[:0]
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no stops after rollback, got %v", events)
	}
}

func TestStopAllSkipsUnstarted(t *testing.T) {
	r := NewRegistry(nil)
	var events []string
	_ = r.Register(&mockComponent{name: "whisper", events: &events})

	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected 0 stops for unstarted components, got %v", events)
	}
}

func TestStopAllWithErrors(t *testing.T) {
	r := NewRegistry(nil)
	stopErr := errors.New("flush failed")
	_ = r.Register(&mockComponent{name: "telemetry", stopErr: stopErr})
	_ = r.StartAll(context.Background())

	if err := r.StopAll(context.Background()); !errors.Is(err, stopErr) {
		t.Errorf("expected stop error, got %v", err)
	}
}

func TestHealthAll(t *testing.T) {
	r := NewRegistry(nil)
	_ = r.Register(&mockComponent{
		name:   "http-server",
		health: Health{Name: "http-server", Status: StatusHealthy},
	})
	_ = r.Register(&mockComponent{
		name:   "whisper",
		health: Health{Name: "whisper", Status: StatusDegraded, Message: "no API key"},
	})

	results := r.HealthAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Status != StatusHealthy || results[1].Status != StatusDegraded {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestCheck(t *testing.T) {
	stopped := false
	c := NewCheck("llm-openai", Description{Type: "capability", Details: "gpt-4"},
		func(context.Context) Health { return Health{Status: StatusDegraded} }).
		OnStop(func(context.Context) error { stopped = true; return nil })

	if h := c.Health(context.Background()); h.Name != "llm-openai" || h.Status != StatusDegraded {
		t.Errorf("Health = %+v", h)
	}
	if d := c.Describe(); d.Name != "llm-openai" || d.Details != "gpt-4" {
		t.Errorf("Describe = %+v", d)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.Stop(context.Background()); err != nil || !stopped {
		t.Errorf("Stop = %v, stopped = %v", err, stopped)
	}

	plain := NewCheck("plain", Description{}, nil)
	if h := plain.Health(context.Background()); h.Status != StatusHealthy {
		t.Errorf("nil check should be healthy, got %s", h.Status)
	}
	if err := plain.Stop(context.Background()); err != nil {
		t.Errorf("Stop = %v", err)
	}
}

func TestOverall(t *testing.T) {
	tests := []struct {
		name string
		in   []HealthStatus
		want HealthStatus
	}{
		{"empty", nil, StatusHealthy},
		{"healthy", []HealthStatus{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"degraded", []HealthStatus{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins", []HealthStatus{StatusUnhealthy, StatusDegraded}, StatusUnhealthy},
		{"unknown status ranks worst", []HealthStatus{"starting"}, "starting"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hs []Health
			for _, s := range tt.in {
				hs = append(hs, Health{Status: s})
			}
			if got := Overall(hs); got != tt.want {
				t.Errorf("Overall = %s, want %s", got, tt.want)
			}
		})
	}
}
