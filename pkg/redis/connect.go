package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect opens a Redis client from cfg.ConnectionString and verifies
// it with a ping, retrying up to cfg.RetryAttempts times.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.ConnectionString == "" {
		return nil, ErrEmptyConnectionString
	}

	opts, err := redis.ParseURL(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}

	client := redis.NewClient(opts)

	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var pingErr error
	for i := 0; i < attempts; i++ {
		if pingErr = client.Ping(ctx).Err(); pingErr == nil {
			return client, nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				_ = client.Close()
				return nil, errors.Join(ErrFailedToConnect, ctx.Err())
			case <-time.After(cfg.RetryInterval):
			}
		}
	}

	_ = client.Close()
	return nil, errors.Join(ErrFailedToConnect, fmt.Errorf("after %d attempts: %w", attempts, pingErr))
}
