package bus

import (
	"context"

	"github.com/yungbote/materials-registry/internal/realtime"
)

// Bus fans history events out to other processes.
type Bus interface {
	Publish(ctx context.Context, ev realtime.Event) error
	// Subscribe delivers events to fn on a background goroutine until ctx
	// is cancelled or the bus is closed.
	Subscribe(ctx context.Context, fn func(realtime.Event)) error
	Close() error
}

type noopBus struct{}

// Noop drops every event. It is used when REDIS_ADDR is unset.
func Noop() Bus { return noopBus{} }

func (noopBus) Publish(context.Context, realtime.Event) error          { return nil }
func (noopBus) Subscribe(context.Context, func(realtime.Event)) error { return nil }
func (noopBus) Close() error                                           { return nil }
