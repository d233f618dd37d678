package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/materials-registry/internal/platform/logger"
	"github.com/yungbote/materials-registry/internal/realtime"
)

const (
	defaultChannel   = "material-events"
	redisDialTimeout = 5 * time.Second
)

var errBusClosed = errors.New("redis event bus closed")

type RedisConfig struct {
	Addr    string
	Channel string
}

// RedisBus publishes events as JSON on a single pub/sub channel.
type RedisBus struct {
	log     *logger.Logger
	client  *goredis.Client
	channel string
}

// NewRedisBus connects and pings before returning.
func NewRedisBus(log *logger.Logger, cfg RedisConfig) (*RedisBus, error) {
	if log == nil {
		return nil, errors.New("redis bus: logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis bus: addr required")
	}
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = defaultChannel
	}

	client := goredis.NewClient(&goredis.Options{Addr: addr, DialTimeout: redisDialTimeout})
	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis bus: ping %s: %w", addr, err)
	}

	log.Info("Redis event bus connected", "addr", addr, "channel", channel)
	return &RedisBus{log: log.With("component", "redis_bus"), client: client, channel: channel}, nil
}

func (b *RedisBus) Publish(ctx context.Context, ev realtime.Event) error {
	if b == nil || b.client == nil {
		return errBusClosed
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, fn func(realtime.Event)) error {
	if b == nil || b.client == nil {
		return errBusClosed
	}
	if fn == nil {
		return errors.New("redis bus: handler required")
	}

	sub := b.client.Subscribe(ctx, b.channel)
	// The first reply confirms the subscription is live.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis bus: subscribe %s: %w", b.channel, err)
	}

	go b.deliver(ctx, sub, fn)
	return nil
}

func (b *RedisBus) deliver(ctx context.Context, sub *goredis.PubSub, fn func(realtime.Event)) {
	defer sub.Close()
	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev realtime.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn("Dropping undecodable event", "channel", msg.Channel, "error", err)
				continue
			}
			fn(ev)
		}
	}
}

func (b *RedisBus) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Close()
}
