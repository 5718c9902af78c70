package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pscheid92/watchsync/internal/platform/retry"
	goredis "github.com/redis/go-redis/v9"
)

// Client wraps a go-redis client.
type Client struct {
	rdb *goredis.Client
}

// NewClient creates a client from a URL (e.g. "redis://localhost:6379") with the given hooks installed.
// No connection is made until the first command.
func NewClient(redisURL string, hooks ...goredis.Hook) (*Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := goredis.NewClient(opts)
	for _, h := range hooks {
		rdb.AddHook(h)
	}
	return &Client{rdb: rdb}, nil
}

// Connect creates a client and pings it under policy until the broker answers.
func Connect(ctx context.Context, redisURL string, policy retry.Policy, hooks ...goredis.Hook) (*Client, error) {
	client, err := NewClient(redisURL, hooks...)
	if err != nil {
		return nil, err
	}

	if policy.OnRetry == nil {
		policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Redis not reachable, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		}
	}

	err = retry.Do(ctx, policy, func(ctx context.Context) error {
		return client.Ping(ctx)
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Ping verifies the Redis connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
