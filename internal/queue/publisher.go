package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"streamify/internal/logging"
)

// Publisher appends events to a stream.
type Publisher interface {
	// Publish returns the message ID assigned by Redis.
	Publish(ctx context.Context, stream string, event FeedEvent) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) Publisher {
	return &RedisPublisher{client: client}
}

// Publish adds the event with XADD and an auto-generated ID.
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event FeedEvent) (string, error) {
	log := logging.Component(ctx, "publisher")
	startTime := time.Now()

	values, err := event.ToMap()
	if err != nil {
		log.Error("serialize event failed", "stream", stream, "type", event.Type, "error", err)
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		log.Error("xadd failed", "stream", stream, "type", event.Type, "error", err)
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	log.Debug("published",
		"stream", stream, "type", event.Type, "message_id", messageID, "duration", time.Since(startTime))
	return messageID, nil
}
