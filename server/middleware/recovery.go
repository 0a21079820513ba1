package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/medpipe/logger"
)

// PanicHandler renders the response for a recovered panic.
type PanicHandler func(c *gin.Context, err error)

// Recovery returns a Gin middleware that recovers from panics and logs the
// stack. The response is rendered by render; nil sends a bare 500.
func Recovery(log *logger.Logger, render PanicHandler) gin.HandlerFunc {
	log = log.WithComponent("recovery")
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("panic: %v", rec)
				log.WithContext(c.Request.Context()).Error("Panic recovered", logger.Fields(
					logger.FieldError, err.Error(),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				))
				if c.Writer.Written() {
					c.Abort()
					return
				}
				if render == nil {
					c.AbortWithStatus(http.StatusInternalServerError)
					return
				}
				render(c, err)
				c.Abort()
			}
		}()
		c.Next()
	}
}
