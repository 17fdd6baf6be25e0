package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const resultChangeStream = "quinielas.result-changes"

// StreamPublisher publishes notification items to a Redis stream so the
// presentation layer can pick them up without polling the database.
// Nil-safe: when Redis is not configured, all methods are no-ops.
type StreamPublisher struct {
	client *redis.Client
}

// NewStreamPublisher connects to Redis from a URL. Returns nil when the URL
// is empty (publishing disabled).
func NewStreamPublisher(redisURL string, logger *slog.Logger) (*StreamPublisher, error) {
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if logger != nil {
		logger.Info("redis stream publisher enabled", "stream", resultChangeStream)
	}
	return &StreamPublisher{client: client}, nil
}

// Publish appends one item to the result-change stream.
func (p *StreamPublisher) Publish(ctx context.Context, it Item) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: resultChangeStream,
		Values: map[string]interface{}{"notification": string(payload)},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish to stream %s: %w", resultChangeStream, err)
	}
	return nil
}

// Close releases the Redis connection.
func (p *StreamPublisher) Close() error {
	if p == nil {
		return nil
	}
	return p.client.Close()
}
