package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"streamify/internal/logging"
)

// Message is a parsed entry read from a Redis stream.
type Message struct {
	ID    string // e.g. "1702000000000-0"
	Event FeedEvent
}

// Consumer reads a stream through a consumer group.
type Consumer interface {
	// EnsureGroup creates the consumer group if it doesn't exist.
	EnsureGroup(ctx context.Context, stream, group string) error

	// Read returns messages never delivered to any consumer, blocking up to block.
	Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error)

	// ReadPending returns messages delivered to this consumer but not yet acknowledged.
	ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error)

	Ack(ctx context.Context, stream, group string, messageIDs ...string) error

	Pending(ctx context.Context, stream, group string) (int64, error)
}

// RedisConsumer implements Consumer using Redis Streams.
type RedisConsumer struct {
	client *redis.Client
}

func NewConsumer(client *redis.Client) Consumer {
	return &RedisConsumer{client: client}
}

// EnsureGroup runs XGROUP CREATE ... 0 MKSTREAM. An existing group is not an error.
func (c *RedisConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	log := logging.Component(ctx, "consumer")

	err := c.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			log.Debug("consumer group exists", "stream", stream, "group", group)
			return nil
		}
		log.Error("create consumer group failed", "stream", stream, "group", group, "error", err)
		return fmt.Errorf("create consumer group: %w", err)
	}

	log.Info("consumer group created", "stream", stream, "group", group)
	return nil
}

func (c *RedisConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error) {
	// ">" means only messages not yet delivered to any consumer
	return c.read(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	})
}

// ReadPending is used on worker start to recover messages in flight during a crash.
func (c *RedisConsumer) ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error) {
	// "0" replays this consumer's pending entries list
	return c.read(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, "0"},
		Count:    count,
	})
}

func (c *RedisConsumer) read(ctx context.Context, args *redis.XReadGroupArgs) ([]Message, error) {
	log := logging.Component(ctx, "consumer")
	startTime := time.Now()

	streams, err := c.client.XReadGroup(ctx, args).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	var messages []Message
	for _, s := range streams {
		for _, msg := range s.Messages {
			event, err := ParseFeedEvent(msg.Values)
			if err != nil {
				// Acked so it is not redelivered forever.
				log.Warn("drop malformed message", "message_id", msg.ID, "error", err)
				c.client.XAck(ctx, args.Streams[0], args.Group, msg.ID)
				continue
			}
			messages = append(messages, Message{ID: msg.ID, Event: event})
		}
	}

	if len(messages) > 0 {
		log.Debug("read messages",
			"stream", args.Streams[0], "consumer", args.Consumer, "count", len(messages), "duration", time.Since(startTime))
	}
	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, stream, group string, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := c.client.XAck(ctx, stream, group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

func (c *RedisConsumer) Pending(ctx context.Context, stream, group string) (int64, error) {
	info, err := c.client.XPending(ctx, stream, group).Result()
	if err != nil {
		return 0, fmt.Errorf("xpending: %w", err)
	}
	return info.Count, nil
}
