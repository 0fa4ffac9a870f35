package authstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/joestump/campaign-desk/internal/metrics"
)

// DefaultRedisPrefix namespaces pub/sub channels.
const DefaultRedisPrefix = "campaign-desk:auth:"

// RedisHub fans events out through Redis pub/sub so every instance behind a
// load balancer sees logins and role changes made on any other.
type RedisHub struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
	closed atomic.Bool
	done   chan struct{}
}

// NewRedisHub connects to url and verifies the connection.
func NewRedisHub(ctx context.Context, url string, log *zap.Logger) (*RedisHub, error) {
	if url == "" {
		return nil, errors.New("redis URL is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisHub{client: client, prefix: DefaultRedisPrefix, log: log, done: make(chan struct{})}, nil
}

func (h *RedisHub) Publish(ctx context.Context, topic string, e Event) error {
	if h.closed.Load() {
		return ErrClosed
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return h.client.Publish(ctx, h.prefix+topic, payload).Err()
}

func (h *RedisHub) Subscribe(ctx context.Context, topics ...string) (<-chan Event, error) {
	if h.closed.Load() {
		return nil, ErrClosed
	}
	channels := make([]string, len(topics))
	for i, t := range topics {
		channels[i] = h.prefix + t
	}

	ps := h.client.Subscribe(ctx, channels...)
	// Wait for the subscription confirmation so no event published after
	// Subscribe returns is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer func() { _ = ps.Close() }()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					h.log.Warn("dropping malformed auth event", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- e:
				default:
					metrics.AuthEventsDroppedTotal.Inc()
				}
			}
		}
	}()
	return out, nil
}

// Close closes the Redis client, ending every subscription.
func (h *RedisHub) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(h.done)
	return h.client.Close()
}
