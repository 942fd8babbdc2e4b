package entitlement

import (
	"context"
	"fmt"
	"strings"

	subscriptionEntitlementAction "github.com/chargebee/chargebee-go/v3/actions/subscriptionentitlement"
	subscriptionEntitlementModel "github.com/chargebee/chargebee-go/v3/models/subscriptionentitlement"

	"github.com/openbilling/billingkit/pkg/feature"
)

// ChargebeeSource implements EntitlementSource over the Chargebee
// subscription-entitlement resource. The Chargebee SDK must already be
// configured (see subscription.NewChargebeeGateway).
type ChargebeeSource struct{}

// NewChargebeeSource returns a source reading entitlements from Chargebee.
func NewChargebeeSource() *ChargebeeSource {
	return &ChargebeeSource{}
}

func (s *ChargebeeSource) Entitlements(ctx context.Context, subscriptionID string) ([]Entitlement, error) {
	var out []Entitlement
	offset := ""
	for {
		req := &subscriptionEntitlementModel.SubscriptionEntitlementsForSubscriptionRequestParams{}
		if offset != "" {
			req.Offset = offset
		}
		res, err := subscriptionEntitlementAction.
			SubscriptionEntitlementsForSubscription(subscriptionID, req).
			Contexts(ctx).
			ListRequest()
		if err != nil {
			return nil, fmt.Errorf("list entitlements for subscription %s: %w", subscriptionID, err)
		}

		for _, entry := range res.List {
			ent := entry.SubscriptionEntitlement
			out = append(out, Entitlement{
				FeatureID:      ent.FeatureId,
				FeatureType:    feature.Type(strings.ToLower(string(ent.FeatureType))),
				Value:          ent.Value,
				SubscriptionID: ent.SubscriptionId,
			})
		}

		if res.NextOffset == "" {
			return out, nil
		}
		offset = res.NextOffset
	}
}
