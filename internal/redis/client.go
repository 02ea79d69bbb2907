// Package redis holds the shared go-redis client used by the feed cache and
// the event streams.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	clientName     = "streamify"
	connectTimeout = 5 * time.Second
)

// Client is the process-wide connection pool.
type Client struct {
	*redis.Client
}

// Connect dials redisURL (redis://[:password@]host:port[/db]) and fails when
// the server does not answer a PING within connectTimeout.
func Connect(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.ClientName = clientName

	c := &Client{Client: redis.NewClient(opts)}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		_ = c.Client.Close()
		return nil, err
	}
	return c, nil
}

// Ping reports whether Redis answers. The health check calls it per request.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
