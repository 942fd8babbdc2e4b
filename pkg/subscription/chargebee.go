package subscription

import (
	"context"
	"strconv"
	"time"

	"github.com/chargebee/chargebee-go/v3"
	itemPriceAction "github.com/chargebee/chargebee-go/v3/actions/itemprice"
	subscriptionAction "github.com/chargebee/chargebee-go/v3/actions/subscription"
	usageAction "github.com/chargebee/chargebee-go/v3/actions/usage"
	"github.com/chargebee/chargebee-go/v3/enum"
	"github.com/chargebee/chargebee-go/v3/filter"
	subscriptionModel "github.com/chargebee/chargebee-go/v3/models/subscription"
	usageModel "github.com/chargebee/chargebee-go/v3/models/usage"
)

// ChargebeeConfig holds credentials for the Chargebee site.
type ChargebeeConfig struct {
	Site   string `env:"CHARGEBEE_SITE,required"`
	APIKey string `env:"CHARGEBEE_API_KEY,required"`
}

// ChargebeeGateway implements RemoteGateway on top of the official
// Chargebee SDK (Product Catalog 2.0 item-price APIs).
//
// Chargebee has no conditional-update API, so
// UpdateItemsParams.ExpectedResourceVersion is accepted but not enforced;
// concurrent writers race last-writer-wins at the provider.
type ChargebeeGateway struct {
	config ChargebeeConfig
}

// NewChargebeeGateway configures the Chargebee SDK and returns a gateway.
// The SDK holds site credentials globally, so one process talks to one
// Chargebee site.
func NewChargebeeGateway(config ChargebeeConfig) (*ChargebeeGateway, error) {
	if config.Site == "" {
		return nil, ErrMissingSite
	}
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	chargebee.Configure(config.APIKey, config.Site)
	return &ChargebeeGateway{config: config}, nil
}

func (g *ChargebeeGateway) Retrieve(ctx context.Context, subscriptionID string) (*RemoteSubscription, error) {
	res, err := subscriptionAction.Retrieve(subscriptionID).Contexts(ctx).Request()
	if err != nil {
		return nil, err
	}
	return fromChargebeeSubscription(res.Subscription), nil
}

func (g *ChargebeeGateway) UpdateItems(ctx context.Context, subscriptionID string, params UpdateItemsParams) (*RemoteSubscription, error) {
	items := make([]*subscriptionModel.UpdateForItemsSubscriptionItemParams, 0, len(params.Items))
	for _, item := range params.Items {
		p := &subscriptionModel.UpdateForItemsSubscriptionItemParams{
			ItemPriceId: item.PriceID,
		}
		if item.Quantity != nil {
			p.Quantity = chargebee.Int32(int32(*item.Quantity))
		}
		items = append(items, p)
	}

	req := &subscriptionModel.UpdateForItemsRequestParams{
		SubscriptionItems: items,
		CouponIds:         params.CouponIDs,
	}
	if params.ReplaceItemsList {
		req.ReplaceItemsList = chargebee.Bool(true)
	}
	if params.Prorate != nil {
		req.Prorate = chargebee.Bool(*params.Prorate)
	}
	if params.TrialEnd != nil {
		if params.TrialEnd.IsZero() {
			req.TrialEnd = chargebee.Int64(0)
		} else {
			req.TrialEnd = chargebee.Int64(params.TrialEnd.Unix())
		}
	}
	if params.InvoiceImmediately {
		req.InvoiceImmediately = chargebee.Bool(true)
	}
	if params.BillingCycleAnchor != nil {
		req.ChangesScheduledAt = chargebee.Int64(params.BillingCycleAnchor.Unix())
	}

	res, err := subscriptionAction.UpdateForItems(subscriptionID, req).Contexts(ctx).Request()
	if err != nil {
		return nil, err
	}
	return fromChargebeeSubscription(res.Subscription), nil
}

func (g *ChargebeeGateway) Cancel(ctx context.Context, subscriptionID string, params CancelParams) (*RemoteSubscription, error) {
	req := &subscriptionModel.CancelForItemsRequestParams{}
	switch params.Option {
	case CancelEndOfTerm:
		req.CancelOption = enum.CancelOptionEndOfTerm
	case CancelSpecificDate:
		req.CancelOption = enum.CancelOptionSpecificDate
	case CancelImmediately:
		req.CancelOption = enum.CancelOptionImmediately
	}
	if params.CancelAt != nil {
		req.CancelAt = chargebee.Int64(params.CancelAt.Unix())
	}
	if params.CreditOption != nil {
		switch *params.CreditOption {
		case CreditProrate:
			req.CreditOptionForCurrentTermCharges = enum.CreditOptionForCurrentTermChargesProrate
		case CreditFull:
			req.CreditOptionForCurrentTermCharges = enum.CreditOptionForCurrentTermChargesFull
		case CreditNone:
			req.CreditOptionForCurrentTermCharges = enum.CreditOptionForCurrentTermChargesNone
		}
	}
	if params.UnbilledCharges != nil {
		switch *params.UnbilledCharges {
		case UnbilledChargesInvoice:
			req.UnbilledChargesOption = enum.UnbilledChargesOptionInvoice
		case UnbilledChargesDelete:
			req.UnbilledChargesOption = enum.UnbilledChargesOptionDelete
		}
	}

	res, err := subscriptionAction.CancelForItems(subscriptionID, req).Contexts(ctx).Request()
	if err != nil {
		return nil, err
	}
	return fromChargebeeSubscription(res.Subscription), nil
}

func (g *ChargebeeGateway) Resume(ctx context.Context, subscriptionID string, params ResumeParams) (*RemoteSubscription, error) {
	req := &subscriptionModel.ResumeRequestParams{
		ResumeOption: enum.ResumeOptionImmediately,
	}
	res, err := subscriptionAction.Resume(subscriptionID, req).Contexts(ctx).Request()
	if err != nil {
		return nil, err
	}
	return fromChargebeeSubscription(res.Subscription), nil
}

func (g *ChargebeeGateway) RetrievePrice(ctx context.Context, priceID string) (*RemotePrice, error) {
	res, err := itemPriceAction.Retrieve(priceID).Contexts(ctx).Request()
	if err != nil {
		return nil, err
	}
	return &RemotePrice{
		ID:        res.ItemPrice.Id,
		ProductID: res.ItemPrice.ItemId,
	}, nil
}

func (g *ChargebeeGateway) CreateUsage(ctx context.Context, subscriptionID string, params UsageParams) (*Usage, error) {
	res, err := usageAction.Create(subscriptionID, &usageModel.CreateRequestParams{
		ItemPriceId: params.ItemPriceID,
		Quantity:    strconv.Itoa(params.Quantity),
		UsageDate:   chargebee.Int64(params.UsageDate.Unix()),
	}).Contexts(ctx).Request()
	if err != nil {
		return nil, err
	}
	return fromChargebeeUsage(res.Usage), nil
}

func (g *ChargebeeGateway) ListUsages(ctx context.Context, subscriptionID, priceID string) ([]Usage, error) {
	var out []Usage
	offset := ""
	for {
		req := &usageModel.ListRequestParams{
			SubscriptionId: &filter.StringFilter{Is: subscriptionID},
			ItemPriceId:    &filter.StringFilter{Is: priceID},
		}
		if offset != "" {
			req.Offset = offset
		}
		res, err := usageAction.List(req).Contexts(ctx).ListRequest()
		if err != nil {
			return nil, err
		}
		for _, entry := range res.List {
			out = append(out, *fromChargebeeUsage(entry.Usage))
		}
		if res.NextOffset == "" {
			return out, nil
		}
		offset = res.NextOffset
	}
}

func fromChargebeeSubscription(sub *subscriptionModel.Subscription) *RemoteSubscription {
	out := &RemoteSubscription{
		ID:              sub.Id,
		Status:          Status(sub.Status),
		CurrentTermEnd:  time.Unix(sub.CurrentTermEnd, 0),
		ResourceVersion: sub.ResourceVersion,
	}
	if sub.CancelledAt != 0 {
		cancelledAt := time.Unix(sub.CancelledAt, 0)
		out.CancelledAt = &cancelledAt
	}
	if sub.TrialEnd != 0 {
		trialEnd := time.Unix(sub.TrialEnd, 0)
		out.TrialEnd = &trialEnd
	}
	for _, item := range sub.SubscriptionItems {
		remoteItem := RemoteItem{PriceID: item.ItemPriceId}
		if item.Quantity != 0 {
			remoteItem.Quantity = intPtr(int(item.Quantity))
		}
		out.Items = append(out.Items, remoteItem)
	}
	return out
}

func fromChargebeeUsage(u *usageModel.Usage) *Usage {
	quantity, _ := strconv.Atoi(u.Quantity)
	return &Usage{
		ID:          u.Id,
		ItemPriceID: u.ItemPriceId,
		Quantity:    quantity,
		UsageDate:   time.Unix(u.UsageDate, 0),
	}
}
