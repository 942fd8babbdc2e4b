package entitlement

import (
	"context"

	"github.com/google/uuid"

	"github.com/openbilling/billingkit/pkg/feature"
)

// Entitlement is a resolved grant of one feature to a customer, derived
// from one of their subscriptions. Entitlements are ephemeral: they are
// materialized at aggregation time and persisted only inside the cache.
type Entitlement struct {
	FeatureID      string       `json:"feature_id"`
	FeatureType    feature.Type `json:"feature_type"`
	Value          any          `json:"value"`
	SubscriptionID string       `json:"subscription_id"`
}

// EntitlementSource exposes the feature grants of one remote subscription.
type EntitlementSource interface {
	Entitlements(ctx context.Context, subscriptionID string) ([]Entitlement, error)
}

// SubscriptionSource lists the remote subscription IDs an owner's
// entitlements are derived from.
type SubscriptionSource interface {
	RemoteSubscriptionIDs(ctx context.Context, ownerID uuid.UUID) ([]string, error)
}

// Aggregator derives the full entitlement set for a customer.
type Aggregator interface {
	Fetch(ctx context.Context, ownerID uuid.UUID) ([]Entitlement, error)
}

type aggregator struct {
	subscriptions SubscriptionSource
	source        EntitlementSource
}

// NewAggregator returns an Aggregator that unions the entitlements of each
// of the owner's subscriptions. Duplicate grants across subscriptions stay
// separate entries; conflict resolution belongs to the verifier.
func NewAggregator(subscriptions SubscriptionSource, source EntitlementSource) Aggregator {
	if subscriptions == nil {
		panic("entitlement: SubscriptionSource is required")
	}
	if source == nil {
		panic("entitlement: EntitlementSource is required")
	}
	return &aggregator{subscriptions: subscriptions, source: source}
}

func (a *aggregator) Fetch(ctx context.Context, ownerID uuid.UUID) ([]Entitlement, error) {
	ids, err := a.subscriptions.RemoteSubscriptionIDs(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var out []Entitlement
	for _, id := range ids {
		ents, err := a.source.Entitlements(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, ents...)
	}
	return out, nil
}
