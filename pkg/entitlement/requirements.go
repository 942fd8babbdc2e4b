package entitlement

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Requirements maps route or handler identifiers to the features they
// require. It replaces annotation-style feature declarations with an
// explicit registration table consulted at a single enforcement point.
type Requirements struct {
	mu     sync.RWMutex
	routes map[string][]string
}

// NewRequirements returns an empty requirement table.
func NewRequirements() *Requirements {
	return &Requirements{routes: make(map[string][]string)}
}

// Require records the features a route needs. Repeated calls for the same
// route append.
func (r *Requirements) Require(routeID string, featureIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.routes[routeID] = append(r.routes[routeID], featureIDs...)
}

// FeaturesFor returns the features registered for a route.
func (r *Requirements) FeaturesFor(routeID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.routes[routeID])
}

// Enforce checks the owner's access against the features registered for
// the route. Routes with no registered features are open.
func (r *Requirements) Enforce(ctx context.Context, verifier AccessVerifier, ownerID uuid.UUID, routeID string) error {
	features := r.FeaturesFor(routeID)
	if len(features) == 0 {
		return nil
	}
	return verifier.HasAccess(ctx, ownerID, features...)
}
