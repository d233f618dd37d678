package bus

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/materials-registry/internal/platform/logger"
	"github.com/yungbote/materials-registry/internal/realtime"
)

func TestNoopBusAcceptsEverything(t *testing.T) {
	b := Noop()
	if err := b.Publish(context.Background(), realtime.Event{Type: realtime.EventHistoryAppended}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := b.Subscribe(context.Background(), func(realtime.Event) {}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewRedisBusRequiresAddr(t *testing.T) {
	if _, err := NewRedisBus(logger.Nop(), RedisConfig{}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
	if _, err := NewRedisBus(nil, RedisConfig{Addr: "localhost:6379"}); err == nil {
		t.Fatalf("expected error for nil logger")
	}
}

func TestRedisBusRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	b, err := NewRedisBus(logger.Nop(), RedisConfig{Addr: addr, Channel: "material-events-test-" + uuid.NewString()[:8]})
	if err != nil {
		t.Fatalf("NewRedisBus: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan realtime.Event, 1)
	if err := b.Subscribe(ctx, func(ev realtime.Event) { got <- ev }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	want := realtime.Event{Type: realtime.EventHistoryAppended, MaterialID: uuid.New(), HistoryID: uuid.New(), Version: 3, Reason: "update"}
	if err := b.Publish(ctx, want); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case ev := <-got:
		if ev.MaterialID != want.MaterialID || ev.HistoryID != want.HistoryID || ev.Version != 3 {
			t.Fatalf("event: want=%+v got=%+v", want, ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
}
