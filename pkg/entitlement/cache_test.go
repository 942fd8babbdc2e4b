package entitlement_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbilling/billingkit/pkg/entitlement"
)

// countingAggregator tracks how many times the entitlement set was fetched.
type countingAggregator struct {
	calls atomic.Int64
	block chan struct{} // optional gate to hold fetches open
	ents  []entitlement.Entitlement
	err   error
}

func (a *countingAggregator) Fetch(ctx context.Context, ownerID uuid.UUID) ([]entitlement.Entitlement, error) {
	a.calls.Add(1)
	if a.block != nil {
		<-a.block
	}
	return a.ents, a.err
}

// faultyCacheStore simulates a cache backend outage on reads.
type faultyCacheStore struct {
	inner  entitlement.CacheStore
	getErr error
}

func (s *faultyCacheStore) Get(ctx context.Context, key string) ([]entitlement.Entitlement, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.inner.Get(ctx, key)
}

func (s *faultyCacheStore) Put(ctx context.Context, key string, ents []entitlement.Entitlement, ttl time.Duration) error {
	return s.inner.Put(ctx, key, ents, ttl)
}

func TestCache_Ensure(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	grants := []entitlement.Entitlement{switchGrant("feature-api", "sub_a", true)}

	t.Run("aggregates once and serves from cache after", func(t *testing.T) {
		t.Parallel()

		agg := &countingAggregator{ents: grants}
		cache := entitlement.NewCache(entitlement.NewMemoryCacheStore(), agg, entitlement.Config{})

		for i := 0; i < 3; i++ {
			ents, err := cache.Ensure(context.Background(), owner)
			require.NoError(t, err)
			assert.Len(t, ents, 1)
		}
		assert.Equal(t, int64(1), agg.calls.Load())
	})

	t.Run("expired entries trigger a fresh aggregation", func(t *testing.T) {
		t.Parallel()

		agg := &countingAggregator{ents: grants}
		cache := entitlement.NewCache(entitlement.NewMemoryCacheStore(), agg, entitlement.Config{
			SessionLifetime: 10 * time.Millisecond,
		})

		_, err := cache.Ensure(context.Background(), owner)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		_, err = cache.Ensure(context.Background(), owner)
		require.NoError(t, err)
		assert.Equal(t, int64(2), agg.calls.Load())
	})

	t.Run("concurrent misses collapse into one fetch", func(t *testing.T) {
		t.Parallel()

		agg := &countingAggregator{ents: grants, block: make(chan struct{})}
		cache := entitlement.NewCache(entitlement.NewMemoryCacheStore(), agg, entitlement.Config{})

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := cache.Ensure(context.Background(), owner)
				assert.NoError(t, err)
			}()
		}

		// Give the goroutines time to pile up on the in-flight fetch.
		time.Sleep(50 * time.Millisecond)
		close(agg.block)
		wg.Wait()

		assert.Equal(t, int64(1), agg.calls.Load())
	})

	t.Run("backend read failures degrade to aggregation with a warning", func(t *testing.T) {
		t.Parallel()

		agg := &countingAggregator{ents: grants}
		store := &faultyCacheStore{
			inner:  entitlement.NewMemoryCacheStore(),
			getErr: errors.New("redis: connection refused"),
		}

		var logBuf bytes.Buffer
		cache := entitlement.NewCache(store, agg, entitlement.Config{},
			entitlement.WithCacheLogger(slog.New(slog.NewTextHandler(&logBuf, nil))))

		ents, err := cache.Ensure(context.Background(), owner)
		require.NoError(t, err)
		assert.Len(t, ents, 1)
		assert.Contains(t, logBuf.String(), "entitlements cache read failed")
	})

	t.Run("an ordinary miss is not reported as a failure", func(t *testing.T) {
		t.Parallel()

		agg := &countingAggregator{ents: grants}

		var logBuf bytes.Buffer
		cache := entitlement.NewCache(entitlement.NewMemoryCacheStore(), agg, entitlement.Config{},
			entitlement.WithCacheLogger(slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{
				Level: slog.LevelWarn,
			}))))

		_, err := cache.Ensure(context.Background(), owner)
		require.NoError(t, err)
		assert.Empty(t, logBuf.String())
	})

	t.Run("aggregation failures are not cached", func(t *testing.T) {
		t.Parallel()

		agg := &countingAggregator{err: context.DeadlineExceeded}
		cache := entitlement.NewCache(entitlement.NewMemoryCacheStore(), agg, entitlement.Config{})

		_, err := cache.Ensure(context.Background(), owner)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		agg.err = nil
		agg.ents = grants
		ents, err := cache.Ensure(context.Background(), owner)
		require.NoError(t, err)
		assert.Len(t, ents, 1)
	})

	t.Run("set overwrites the cached entry", func(t *testing.T) {
		t.Parallel()

		agg := &countingAggregator{ents: grants}
		cache := entitlement.NewCache(entitlement.NewMemoryCacheStore(), agg, entitlement.Config{})

		_, err := cache.Ensure(context.Background(), owner)
		require.NoError(t, err)

		replacement := []entitlement.Entitlement{
			switchGrant("feature-api", "sub_a", true),
			switchGrant("feature-sso", "sub_a", true),
		}
		require.NoError(t, cache.Set(context.Background(), owner, replacement))

		ents, err := cache.Ensure(context.Background(), owner)
		require.NoError(t, err)
		assert.Len(t, ents, 2)
		assert.Equal(t, int64(1), agg.calls.Load(), "set must not trigger re-aggregation")
	})

	t.Run("owners are cached independently", func(t *testing.T) {
		t.Parallel()

		agg := &countingAggregator{ents: grants}
		cache := entitlement.NewCache(entitlement.NewMemoryCacheStore(), agg, entitlement.Config{})

		_, err := cache.Ensure(context.Background(), uuid.New())
		require.NoError(t, err)
		_, err = cache.Ensure(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Equal(t, int64(2), agg.calls.Load())
	})
}

func TestRedisCacheStore(t *testing.T) {
	t.Parallel()

	newStore := func(t *testing.T) (entitlement.CacheStore, *miniredis.Miniredis) {
		t.Helper()
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return entitlement.NewRedisCacheStore(client), mr
	}

	t.Run("miss on absent key", func(t *testing.T) {
		t.Parallel()

		store, _ := newStore(t)
		_, err := store.Get(context.Background(), "entitlements_missing")
		assert.ErrorIs(t, err, entitlement.ErrCacheMiss)
	})

	t.Run("round-trips entitlements as json", func(t *testing.T) {
		t.Parallel()

		store, _ := newStore(t)
		grants := []entitlement.Entitlement{
			switchGrant("feature-api", "sub_a", true),
			switchGrant("feature-sso", "sub_b", "true"),
		}
		require.NoError(t, store.Put(context.Background(), "entitlements_owner", grants, time.Hour))

		got, err := store.Get(context.Background(), "entitlements_owner")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "feature-api", got[0].FeatureID)
		assert.Equal(t, "sub_b", got[1].SubscriptionID)
	})

	t.Run("entries expire with the redis ttl", func(t *testing.T) {
		t.Parallel()

		store, mr := newStore(t)
		grants := []entitlement.Entitlement{switchGrant("feature-api", "sub_a", true)}
		require.NoError(t, store.Put(context.Background(), "entitlements_owner", grants, time.Minute))

		mr.FastForward(2 * time.Minute)

		_, err := store.Get(context.Background(), "entitlements_owner")
		assert.ErrorIs(t, err, entitlement.ErrCacheMiss)
	})
}
