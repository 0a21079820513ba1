package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/medpipe/component"
)

// HealthChecker reports the health of every registered component.
type HealthChecker func(ctx context.Context) []component.Health

func probe(service string, status any) gin.H {
	return gin.H{
		"status":    status,
		"service":   service,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}

func collect(c *gin.Context, checker HealthChecker) []component.Health {
	if checker == nil {
		return []component.Health{}
	}
	return checker(c.Request.Context())
}

// Liveness only confirms the process serves HTTP. It never calls upstream
// capabilities.
func Liveness(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, probe(service, "alive"))
	}
}

// Readiness answers 503 while any component is unhealthy. Degraded
// components keep the service ready.
func Readiness(service string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var down []string
		for _, h := range collect(c, checker) {
			if h.Status == component.StatusUnhealthy {
				down = append(down, h.Name)
			}
		}
		if len(down) > 0 {
			body := probe(service, "not_ready")
			body["unhealthy"] = down
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		c.JSON(http.StatusOK, probe(service, "ready"))
	}
}

// Health reports every component and their overall status. Only an
// unhealthy service answers 503, so load balancers keep routing to a
// degraded one.
func Health(service string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		hs := collect(c, checker)
		overall := component.Overall(hs)
		code := http.StatusOK
		if overall == component.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		body := probe(service, overall)
		body["components"] = hs
		c.JSON(code, body)
	}
}
