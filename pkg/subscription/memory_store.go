package subscription

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]Subscription
}

// NewMemoryStore returns an in-memory Store. Suitable for tests and
// single-process setups; values are deep-copied on the way in and out so
// callers cannot mutate stored state through shared slices.
func NewMemoryStore() Store {
	return &memoryStore{subs: make(map[uuid.UUID]Subscription)}
}

func (s *memoryStore) Get(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[id]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	out := copySubscription(sub)
	return &out, nil
}

func (s *memoryStore) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Subscription
	for _, sub := range s.subs {
		if sub.OwnerID == ownerID {
			out = append(out, copySubscription(sub))
		}
	}
	return out, nil
}

func (s *memoryStore) Save(ctx context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs[sub.ID] = copySubscription(*sub)
	return nil
}

func (s *memoryStore) DeleteItems(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[id]
	if !ok {
		return ErrSubscriptionNotFound
	}
	sub.Items = nil
	s.subs[id] = sub
	return nil
}

func copySubscription(sub Subscription) Subscription {
	out := sub
	out.ChargebeePrice = copyPtr(sub.ChargebeePrice)
	out.Quantity = copyPtr(sub.Quantity)
	out.TrialEndsAt = copyPtr(sub.TrialEndsAt)
	out.EndsAt = copyPtr(sub.EndsAt)
	out.Items = slices.Clone(sub.Items)
	for i := range out.Items {
		out.Items[i].Quantity = copyPtr(sub.Items[i].Quantity)
	}
	return out
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
