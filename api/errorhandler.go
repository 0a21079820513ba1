package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/medpipe/envelope"
	apperrors "github.com/kbukum/medpipe/errors"
	"github.com/kbukum/medpipe/logger"
	"github.com/kbukum/medpipe/server/middleware"
)

// builderKey stores the request's envelope.Builder in the gin context.
const builderKey = "medpipe.envelope"

// ErrorHandler starts the request's envelope and renders the last error
// attached with c.Error once the handler chain returns. A request whose
// caller went away gets status 499 and no body.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("api")
	return func(c *gin.Context) {
		c.Set(builderKey, envelope.Start(logger.RequestIDFromContext(c.Request.Context())))
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		if errors.Is(err, context.Canceled) || errors.Is(c.Request.Context().Err(), context.Canceled) {
			log.WithContext(c.Request.Context()).Info("request canceled by caller", logger.Fields(
				"path", c.Request.URL.Path,
			))
			c.AbortWithStatus(middleware.StatusClientClosedRequest)
			return
		}

		status, resp := Render(builderFrom(c), nil, err)
		logFailure(log.WithContext(c.Request.Context()), c.Request.URL.Path, status, err)
		c.AbortWithStatusJSON(status, resp)
	}
}

// RenderPanic answers a recovered panic with an InternalError envelope. It
// plugs into middleware.Recovery.
func RenderPanic(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, builderFrom(c).Failure(apperrors.Internal(err)))
}

// NotFound answers requests for unknown routes.
func NotFound(c *gin.Context) {
	_ = c.Error(apperrors.NotFound(c.Request.URL.Path))
}

// MethodNotAllowed answers known routes hit with the wrong method.
func MethodNotAllowed(c *gin.Context) {
	_ = c.Error(apperrors.MethodNotAllowed(c.Request.Method))
}

// Render wraps the outcome of a stage call into its envelope and status.
// It is the only place failures become response bodies.
func Render(b *envelope.Builder, result any, err error) (int, envelope.Response) {
	if err == nil {
		return http.StatusOK, b.Success(result)
	}
	resolved := apperrors.Resolve(err)
	status := resolved.HTTPStatus
	if status == 0 {
		status = apperrors.StatusFor(resolved.Code)
	}
	return status, b.Failure(resolved)
}

func builderFrom(c *gin.Context) *envelope.Builder {
	if v, ok := c.Get(builderKey); ok {
		if b, ok := v.(*envelope.Builder); ok {
			return b
		}
	}
	b := envelope.Start(logger.RequestIDFromContext(c.Request.Context()))
	c.Set(builderKey, b)
	return b
}

func logFailure(log *logger.Logger, path string, status int, err error) {
	fields := logger.Fields(
		"path", path,
		logger.FieldStatus, status,
		logger.FieldErrorCode, apperrors.Resolve(err).Code,
		logger.FieldError, err.Error(),
	)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", fields)
		return
	}
	log.Debug("request rejected", fields)
}
