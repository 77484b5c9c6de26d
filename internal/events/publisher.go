// Package events publishes pipeline notifications on Redis pub/sub channels.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Publisher sends an event on a channel. Publishing is best effort:
// implementations log failures and never return them.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) {}

// RedisPublisher publishes JSON payloads with PUBLISH.
type RedisPublisher struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewRedisPublisher parses a redis:// URL and builds a client. No connection is made until the first publish.
func NewRedisPublisher(url string, logger *slog.Logger) (*RedisPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisPublisher{rdb: redis.NewClient(opts), logger: logger}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		p.logger.Warn("events.encode_failed", "channel", channel, "error", err)
		return
	}
	if err := p.rdb.Publish(ctx, channel, b).Err(); err != nil {
		p.logger.Warn("events.publish_failed", "channel", channel, "error", err)
		return
	}
	p.logger.Debug("events.published", "channel", channel, "bytes", len(b))
}

// Close releases the Redis connection pool.
func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
