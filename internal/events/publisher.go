package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/nicuwatch/nicudash/internal/config"
	"github.com/nicuwatch/nicudash/internal/domain/alarm"
)

// RedisPublisher appends alarm events to a Redis stream for live dashboards
type RedisPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisClient creates a client from configuration
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisPublisher creates a publisher writing to stream, trimmed to roughly maxLen entries.
// maxLen <= 0 disables trimming.
func NewRedisPublisher(client *redis.Client, stream string, maxLen int64) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream, maxLen: maxLen}
}

// Publish XADDs the event as a JSON payload.
func (p *RedisPublisher) Publish(ctx context.Context, event alarm.ActionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode alarm event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"action": event.Action,
			"data":   string(payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publish alarm event to %s: %w", p.stream, err)
	}
	return nil
}

// Ping checks the Redis connection
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// NopPublisher discards events when no stream is configured
type NopPublisher struct{}

// Publish does nothing
func (NopPublisher) Publish(context.Context, alarm.ActionEvent) error {
	return nil
}
