package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/materials-registry/internal/http/response"
	"github.com/yungbote/materials-registry/internal/platform/ctxutil"
)

const (
	HeaderActorID   = "X-Actor-Id"
	HeaderRequestID = "X-Request-Id"
	HeaderTraceID   = "X-Trace-Id"
)

// RequestContext attaches request/trace ids and the acting identity. The ids
// are echoed back as response headers. A missing X-Actor-Id leaves the actor
// nil; a malformed one is rejected with 400.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		req := &ctxutil.Request{
			RequestID: strings.TrimSpace(c.GetHeader(HeaderRequestID)),
			TraceID:   strings.TrimSpace(c.GetHeader(HeaderTraceID)),
		}
		if req.RequestID == "" {
			req.RequestID = uuid.NewString()
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			// otelgin already joined or started a trace.
			req.TraceID = sc.TraceID().String()
		}
		if req.TraceID == "" {
			req.TraceID = req.RequestID
		}
		c.Header(HeaderRequestID, req.RequestID)
		c.Header(HeaderTraceID, req.TraceID)

		if raw := strings.TrimSpace(c.GetHeader(HeaderActorID)); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				response.RespondError(c, http.StatusBadRequest, "invalid_actor_id", err)
				c.Abort()
				return
			}
			req.ActorID = id
		}

		c.Request = c.Request.WithContext(ctxutil.WithRequest(c.Request.Context(), req))
		c.Next()
	}
}
