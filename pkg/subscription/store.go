package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Store persists subscriptions together with their item rows. Save must
// write the subscription and its items atomically: items present on the
// value replace the stored item set.
type Store interface {
	// Get retrieves a subscription by its local ID.
	// Returns ErrSubscriptionNotFound if no subscription exists.
	Get(ctx context.Context, id uuid.UUID) (*Subscription, error)

	// GetByOwner returns all subscriptions belonging to an owner.
	GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]Subscription, error)

	// Save creates or updates a subscription and mirrors its item list.
	Save(ctx context.Context, sub *Subscription) error

	// DeleteItems removes all stored item rows for a subscription without
	// touching the subscription row itself.
	DeleteItems(ctx context.Context, id uuid.UUID) error
}
