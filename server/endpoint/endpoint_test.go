package endpoint_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/medpipe/component"
	"github.com/kbukum/medpipe/server/endpoint"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(t *testing.T, h gin.HandlerFunc) (int, map[string]any) {
	t.Helper()
	r := gin.New()
	r.GET("/", h)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	return rr.Code, body
}

func checker(statuses ...component.HealthStatus) endpoint.HealthChecker {
	return func(context.Context) []component.Health {
		out := make([]component.Health, len(statuses))
		for i, s := range statuses {
			out[i] = component.Health{Name: string(s) + "-component", Status: s}
		}
		return out
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		checker    endpoint.HealthChecker
		wantCode   int
		wantStatus string
	}{
		{"no checker", nil, http.StatusOK, "healthy"},
		{"all healthy", checker(component.StatusHealthy), http.StatusOK, "healthy"},
		{"degraded", checker(component.StatusHealthy, component.StatusDegraded), http.StatusOK, "degraded"},
		{"unhealthy wins", checker(component.StatusDegraded, component.StatusUnhealthy), http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := serve(t, endpoint.Health("medpipe", tt.checker))
			if code != tt.wantCode || body["status"] != tt.wantStatus {
				t.Fatalf("got %d %v", code, body)
			}
			if body["service"] != "medpipe" {
				t.Fatalf("service = %v", body["service"])
			}
		})
	}
}

func TestReadiness(t *testing.T) {
	code, body := serve(t, endpoint.Readiness("medpipe", checker(component.StatusDegraded)))
	if code != http.StatusOK || body["status"] != "ready" {
		t.Fatalf("degraded components keep the service ready, got %d %v", code, body)
	}

	code, body = serve(t, endpoint.Readiness("medpipe", checker(component.StatusUnhealthy)))
	if code != http.StatusServiceUnavailable || body["status"] != "not_ready" {
		t.Fatalf("got %d %v", code, body)
	}
	if names := body["unhealthy"].([]any); len(names) != 1 || names[0] != "unhealthy-component" {
		t.Fatalf("unhealthy = %v", body["unhealthy"])
	}
}

func TestLiveness(t *testing.T) {
	code, body := serve(t, endpoint.Liveness("medpipe"))
	if code != http.StatusOK || body["status"] != "alive" {
		t.Fatalf("got %d %v", code, body)
	}
}

func TestVersion(t *testing.T) {
	code, body := serve(t, endpoint.Version())
	if code != http.StatusOK {
		t.Fatalf("got %d", code)
	}
	if _, ok := body["version"]; !ok {
		t.Fatalf("version missing: %v", body)
	}
}

func TestInfo(t *testing.T) {
	code, body := serve(t, endpoint.Info("medpipe", "staging", map[string]any{"transcription_model": "whisper-1"}))
	if code != http.StatusOK || body["environment"] != "staging" {
		t.Fatalf("got %d %v", code, body)
	}
	if body["details"].(map[string]any)["transcription_model"] != "whisper-1" {
		t.Fatalf("details = %v", body["details"])
	}
	if _, ok := body["runtime"].(map[string]any)["goroutines"]; !ok {
		t.Fatalf("runtime = %v", body["runtime"])
	}
}
