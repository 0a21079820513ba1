package endpoint

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/medpipe/version"
)

var startTime = time.Now()

// Version reports the build.
func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	}
}

// Info returns a handler that reports build information, uptime, runtime
// statistics and the deployment details supplied by the caller (configured
// models, limits). details must not contain secrets.
func Info(serviceName, environment string, details map[string]any) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version.Get()
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		c.JSON(http.StatusOK, gin.H{
			"service":     serviceName,
			"environment": environment,
			"version":     v.Version,
			"commit":      v.Commit,
			"go_version":  v.GoVersion,
			"uptime":      time.Since(startTime).Round(time.Second).String(),
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"runtime": gin.H{
				"goroutines": runtime.NumGoroutine(),
				"alloc_mb":   m.Alloc / 1024 / 1024,
				"sys_mb":     m.Sys / 1024 / 1024,
				"gc_runs":    m.NumGC,
			},
			"details": details,
		})
	}
}
