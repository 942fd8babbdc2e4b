package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisCacheStore struct {
	client redis.UniversalClient
}

// NewRedisCacheStore returns a CacheStore that serializes entitlements as
// JSON in redis, relying on redis key expiry for the TTL.
func NewRedisCacheStore(client redis.UniversalClient) CacheStore {
	return &redisCacheStore{client: client}
}

func (s *redisCacheStore) Get(ctx context.Context, key string) ([]Entitlement, error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("get cached entitlements: %w", err)
	}

	var ents []Entitlement
	if err := json.Unmarshal(payload, &ents); err != nil {
		return nil, fmt.Errorf("decode cached entitlements: %w", err)
	}
	return ents, nil
}

func (s *redisCacheStore) Put(ctx context.Context, key string, ents []Entitlement, ttl time.Duration) error {
	payload, err := json.Marshal(ents)
	if err != nil {
		return fmt.Errorf("encode entitlements: %w", err)
	}
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache entitlements: %w", err)
	}
	return nil
}
