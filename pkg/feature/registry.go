package feature

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// Registry stores the local feature mirror so access checks can validate
// requested features without a remote call per request.
type Registry interface {
	// Upsert creates or refreshes one feature row.
	Upsert(ctx context.Context, f Feature) error

	// Get returns the feature with the given provider ID.
	// Returns ErrFeatureNotFound if no row exists.
	Get(ctx context.Context, chargebeeID string) (*Feature, error)

	// List returns all mirrored features ordered by ID.
	List(ctx context.Context) ([]Feature, error)
}

type memoryRegistry struct {
	mu       sync.RWMutex
	features map[string]Feature
}

// NewMemoryRegistry returns an in-memory Registry.
func NewMemoryRegistry() Registry {
	return &memoryRegistry{features: make(map[string]Feature)}
}

func (r *memoryRegistry) Upsert(ctx context.Context, f Feature) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.features[f.ChargebeeID] = f
	return nil
}

func (r *memoryRegistry) Get(ctx context.Context, chargebeeID string) (*Feature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.features[chargebeeID]
	if !ok {
		return nil, ErrFeatureNotFound
	}
	return &f, nil
}

func (r *memoryRegistry) List(ctx context.Context) ([]Feature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Feature, 0, len(r.features))
	for _, f := range r.features {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b Feature) int {
		return strings.Compare(a.ChargebeeID, b.ChargebeeID)
	})
	return out, nil
}
