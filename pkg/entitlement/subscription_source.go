package entitlement

import (
	"context"

	"github.com/google/uuid"

	"github.com/openbilling/billingkit/pkg/subscription"
)

type storeSource struct {
	store subscription.Store
}

// NewStoreSubscriptionSource adapts a subscription.Store into a
// SubscriptionSource. Only valid subscriptions (active, on trial, or in
// their grace period) contribute entitlements.
func NewStoreSubscriptionSource(store subscription.Store) SubscriptionSource {
	return &storeSource{store: store}
}

func (s *storeSource) RemoteSubscriptionIDs(ctx context.Context, ownerID uuid.UUID) ([]string, error) {
	subs, err := s.store.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var ids []string
	for i := range subs {
		if subs[i].Valid() {
			ids = append(ids, subs[i].ChargebeeID)
		}
	}
	return ids, nil
}
