package component

import "context"

// Component is a long-lived part of the process with a start/stop lifecycle
// and a health report. Name must be unique within a Registry.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// HealthStatus is healthy, degraded or unhealthy. A degraded component still
// serves; an unhealthy one does not.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

func (s HealthStatus) severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Health is one component's report.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Overall is the worst status among hs, healthy when hs is empty.
func Overall(hs []Health) HealthStatus {
	worst := StatusHealthy
	for _, h := range hs {
		if h.Status.severity() > worst.severity() {
			worst = h.Status
		}
	}
	return worst
}

// Description is what the startup summary prints for a component.
type Description struct {
	// Name defaults to the component's Name().
	Name string
	// Type groups components, e.g. "server", "llm", "telemetry".
	Type    string
	Details string
	Port    int
}

// Describable components describe themselves in the startup summary.
type Describable interface {
	Describe() Description
}

// Route is one registered HTTP route.
type Route struct {
	Method  string
	Path    string
	Handler string
}

// RouteProvider components list their routes in the startup summary.
type RouteProvider interface {
	Routes() []Route
}
