package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/DoyleJ11/val-draft-backend/internal/hub"
	"github.com/DoyleJ11/val-draft-backend/pkg/types"
)

const (
	DefaultChannel = "valdraft:snapshots"
	sinkClientID   = "redis-sink"
	publishTimeout = 2 * time.Second
)

// publisher is the slice of *redis.Client the sink needs.
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// Source is where the sink takes its frames from; *hub.Hub satisfies it.
type Source interface {
	Inbox() chan<- hub.HubMsg
	OutboxSize() int
	Done() <-chan struct{}
}

// Redis republishes every snapshot frame on a pub/sub channel so overlays
// running in other processes can follow the draft.
type Redis struct {
	client  publisher
	channel string
	logger  *zap.Logger
}

// NewRedis connects and pings the server before returning.
func NewRedis(addr, password string, db int, channel string, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return newRedis(client, channel, logger), nil
}

func newRedis(client publisher, channel string, logger *zap.Logger) *Redis {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, channel: channel, logger: logger}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Publish(ctx context.Context, frame types.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish frame %d: %w", frame.Version, err)
	}
	return nil
}

// Run subscribes to src and publishes until ctx ends or src shuts down. A
// publish failure is logged and the next frame is tried; being dropped as a
// slow subscriber leads to a fresh subscription.
func (r *Redis) Run(ctx context.Context, src Source) error {
	for {
		out := make(chan hub.Update, src.OutboxSize())
		select {
		case src.Inbox() <- hub.Subscribe{ClientID: sinkClientID, Outbox: out}:
		case <-src.Done():
			return nil
		case <-ctx.Done():
			return nil
		}

		if done := r.pump(ctx, out); done {
			select {
			case src.Inbox() <- hub.Unsubscribe{ClientID: sinkClientID}:
			default:
			}
			return nil
		}

		select {
		case <-src.Done():
			return nil
		case <-ctx.Done():
			return nil
		default:
			r.logger.Warn("redis sink fell behind, resubscribing")
		}
	}
}

// pump reports true when ctx ended, false when out was closed.
func (r *Redis) pump(ctx context.Context, out <-chan hub.Update) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case u, ok := <-out:
			if !ok {
				return false
			}
			pctx, cancel := context.WithTimeout(ctx, publishTimeout)
			if err := r.Publish(pctx, u.Frame); err != nil {
				r.logger.Error("publish failed", zap.Error(err))
			}
			cancel()
		}
	}
}
