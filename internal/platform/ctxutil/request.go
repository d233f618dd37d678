package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type requestKey struct{}

// Request is what the HTTP edge learned about the caller. Services never read
// it; handlers pass ActorID explicitly.
type Request struct {
	RequestID string
	TraceID   string
	ActorID   uuid.UUID
}

func WithRequest(ctx context.Context, r *Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// RequestFrom returns the zero Request when none was attached.
func RequestFrom(ctx context.Context) Request {
	if ctx == nil {
		return Request{}
	}
	if r, ok := ctx.Value(requestKey{}).(*Request); ok && r != nil {
		return *r
	}
	return Request{}
}
