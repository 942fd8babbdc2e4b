package entitlement_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbilling/billingkit/pkg/entitlement"
	"github.com/openbilling/billingkit/pkg/feature"
)

type stubSubscriptionSource struct {
	ids []string
	err error
}

func (s *stubSubscriptionSource) RemoteSubscriptionIDs(ctx context.Context, ownerID uuid.UUID) ([]string, error) {
	return s.ids, s.err
}

type stubEntitlementSource struct {
	bySubscription map[string][]entitlement.Entitlement
	err            error
}

func (s *stubEntitlementSource) Entitlements(ctx context.Context, subscriptionID string) ([]entitlement.Entitlement, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.bySubscription[subscriptionID], nil
}

func switchGrant(featureID, subscriptionID string, value any) entitlement.Entitlement {
	return entitlement.Entitlement{
		FeatureID:      featureID,
		FeatureType:    feature.TypeSwitch,
		Value:          value,
		SubscriptionID: subscriptionID,
	}
}

func TestAggregator_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("unions entitlements across subscriptions", func(t *testing.T) {
		t.Parallel()

		agg := entitlement.NewAggregator(
			&stubSubscriptionSource{ids: []string{"sub_a", "sub_b"}},
			&stubEntitlementSource{bySubscription: map[string][]entitlement.Entitlement{
				"sub_a": {switchGrant("feature-api", "sub_a", true)},
				"sub_b": {
					switchGrant("feature-api", "sub_b", true),
					switchGrant("feature-sso", "sub_b", true),
				},
			}},
		)

		ents, err := agg.Fetch(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Len(t, ents, 3, "duplicate grants across subscriptions stay separate")
	})

	t.Run("no subscriptions yields an empty set", func(t *testing.T) {
		t.Parallel()

		agg := entitlement.NewAggregator(&stubSubscriptionSource{}, &stubEntitlementSource{})

		ents, err := agg.Fetch(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Empty(t, ents)
	})

	t.Run("source errors propagate", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("provider down")
		agg := entitlement.NewAggregator(
			&stubSubscriptionSource{ids: []string{"sub_a"}},
			&stubEntitlementSource{err: boom},
		)

		_, err := agg.Fetch(context.Background(), uuid.New())
		assert.ErrorIs(t, err, boom)
	})
}
