package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/materials-registry/internal/observability"
	"github.com/yungbote/materials-registry/internal/platform/ctxutil"
	"github.com/yungbote/materials-registry/internal/platform/logger"
)

// Access logs one line per request and feeds the API metrics. Either
// dependency may be nil.
func Access(log *logger.Logger, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.ApiInflightInc()
		c.Next()
		metrics.ApiInflightDec()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		metrics.ObserveAPI(c.Request.Method, route, status, elapsed)

		if log == nil {
			return
		}
		if route == "" {
			route = c.Request.URL.Path
		}
		req := ctxutil.RequestFrom(c.Request.Context())
		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", req.RequestID,
			"trace_id", req.TraceID,
		}
		if req.ActorID != uuid.Nil {
			fields = append(fields, "actor_id", req.ActorID.String())
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}
		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Debug("HTTP request", fields...)
		}
	}
}
