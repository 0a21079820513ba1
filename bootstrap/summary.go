package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/medpipe/component"
)

// Setting is one configuration value echoed at startup. Secrets must be
// masked by the caller.
type Setting struct {
	Key   string
	Value string
}

// Summary collects and prints what the process started with.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	settings        []Setting
}

// NewSummary creates a new startup summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackSetting records a configuration value to echo.
func (s *Summary) TrackSetting(key, value string) {
	s.settings = append(s.settings, Setting{Key: key, Value: value})
}

// Settings returns the tracked settings in insertion order.
func (s *Summary) Settings() []Setting {
	return s.settings
}

// Write prints the summary to w. Components, routes and live health are
// collected from registry, which may be nil.
func (s *Summary) Write(w io.Writer, registry *component.Registry) {
	fmt.Fprintf(w, "\n%s %s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())

	if len(s.settings) > 0 {
		fmt.Fprintf(w, "\nSettings\n")
		for i, st := range s.settings {
			fmt.Fprintf(w, "   %s %s: %s\n", treePrefix(i, len(s.settings)), st.Key, st.Value)
		}
	}

	if registry == nil {
		fmt.Fprintln(w)
		return
	}

	all := registry.All()
	var routes []component.Route
	fmt.Fprintf(w, "\nComponents\n")
	if len(all) == 0 {
		fmt.Fprintf(w, "   └── none registered\n")
	}
	for i, c := range all {
		line := c.Name()
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			if desc.Name != "" {
				line = desc.Name
			}
			if desc.Type != "" {
				line += " [" + desc.Type + "]"
			}
			if desc.Details != "" {
				line += ": " + desc.Details
			}
		}
		h := c.Health(context.Background())
		msg := ""
		if h.Message != "" {
			msg = " (" + h.Message + ")"
		}
		fmt.Fprintf(w, "   %s %s %s %s%s\n", treePrefix(i, len(all)), healthStatusIcon(h.Status), line,
			strings.ToLower(string(h.Status)), msg)
		if rp, ok := c.(component.RouteProvider); ok {
			routes = append(routes, rp.Routes()...)
		}
	}

	if len(routes) > 0 {
		fmt.Fprintf(w, "\nRoutes (%d)\n", len(routes))
		for i, r := range routes {
			fmt.Fprintf(w, "   %s %-7s %s -> %s\n", treePrefix(i, len(routes)), r.Method, r.Path, r.Handler)
		}
	}
	fmt.Fprintln(w)
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
