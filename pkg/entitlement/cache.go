package entitlement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Config holds the cache tuning knobs. The TTL follows the session
// lifetime so cached entitlements never outlive the session they were
// resolved for.
type Config struct {
	CacheKeyPrefix  string        `env:"ENTITLEMENTS_CACHE_PREFIX" envDefault:"entitlements"`
	SessionLifetime time.Duration `env:"SESSION_LIFETIME" envDefault:"2h"`
}

// CacheStore is the owner-keyed backing store for materialized
// entitlements. Get returns ErrCacheMiss when the key is absent or
// expired. Implementations must be safe for concurrent use per key; writes
// are last-writer-wins.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]Entitlement, error)
	Put(ctx context.Context, key string, ents []Entitlement, ttl time.Duration) error
}

// Cache is a read-through, time-bounded cache in front of an Aggregator.
// Concurrent misses for the same owner are collapsed into a single fetch.
//
// Entries are never invalidated when a subscription mutates; they expire by
// TTL or are overwritten through Set. The staleness window is bounded by
// Config.SessionLifetime.
type Cache struct {
	store      CacheStore
	aggregator Aggregator
	prefix     string
	ttl        time.Duration
	group      singleflight.Group
	log        *slog.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCacheLogger attaches a logger for hit/miss tracing.
func WithCacheLogger(log *slog.Logger) CacheOption {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// NewCache creates a Cache. Panics if store or aggregator is nil.
func NewCache(store CacheStore, aggregator Aggregator, cfg Config, opts ...CacheOption) *Cache {
	if store == nil {
		panic("entitlement: CacheStore is required")
	}
	if aggregator == nil {
		panic("entitlement: Aggregator is required")
	}
	if cfg.CacheKeyPrefix == "" {
		cfg.CacheKeyPrefix = "entitlements"
	}
	if cfg.SessionLifetime <= 0 {
		cfg.SessionLifetime = 2 * time.Hour
	}

	c := &Cache{
		store:      store,
		aggregator: aggregator,
		prefix:     cfg.CacheKeyPrefix,
		ttl:        cfg.SessionLifetime,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ensure returns the owner's entitlements from the cache, falling back to
// one aggregation per key on a miss and storing the result for the TTL.
func (c *Cache) Ensure(ctx context.Context, ownerID uuid.UUID) ([]Entitlement, error) {
	key := c.key(ownerID)

	ents, err := c.store.Get(ctx, key)
	if err == nil {
		c.log.DebugContext(ctx, "entitlements served from cache", slog.String("key", key))
		return ents, nil
	}
	// A backend outage degrades to re-aggregation but must not pass for an
	// ordinary miss.
	if !errors.Is(err, ErrCacheMiss) {
		c.log.WarnContext(ctx, "entitlements cache read failed",
			slog.String("key", key), slog.Any("error", err))
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		ents, err := c.aggregator.Fetch(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if err := c.store.Put(ctx, key, ents, c.ttl); err != nil {
			return nil, err
		}
		c.log.DebugContext(ctx, "entitlements aggregated",
			slog.String("key", key), slog.Int("count", len(ents)))
		return ents, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Entitlement), nil
}

// Set overwrites the owner's cached entitlements.
func (c *Cache) Set(ctx context.Context, ownerID uuid.UUID, ents []Entitlement) error {
	return c.store.Put(ctx, c.key(ownerID), ents, c.ttl)
}

func (c *Cache) key(ownerID uuid.UUID) string {
	return c.prefix + "_" + ownerID.String()
}
