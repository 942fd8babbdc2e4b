package entitlement

import (
	"context"
	"slices"
	"sync"
	"time"
)

type memoryEntry struct {
	ents      []Entitlement
	expiresAt time.Time
}

type memoryCacheStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryCacheStore returns an in-process CacheStore with lazy expiry.
func NewMemoryCacheStore() CacheStore {
	return &memoryCacheStore{entries: make(map[string]memoryEntry)}
}

func (s *memoryCacheStore) Get(ctx context.Context, key string) ([]Entitlement, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return slices.Clone(entry.ents), nil
}

func (s *memoryCacheStore) Put(ctx context.Context, key string, ents []Entitlement, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{
		ents:      slices.Clone(ents),
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}
