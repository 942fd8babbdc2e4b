package subscription

import (
	"context"
	"time"
)

// RemoteGateway is the opaque client for the provider's subscription
// resource. Implementations are expected to enforce their own transport
// timeouts; the reconciler imposes none of its own.
//
// Gateways that support conditional updates should compare
// UpdateItemsParams.ExpectedResourceVersion against the remote resource
// version and return ErrStaleSubscription on mismatch. Gateways without
// that capability ignore the field.
type RemoteGateway interface {
	// Retrieve fetches the current remote subscription state.
	Retrieve(ctx context.Context, subscriptionID string) (*RemoteSubscription, error)

	// UpdateItems updates the remote subscription's item list and related
	// settings, returning the post-update state.
	UpdateItems(ctx context.Context, subscriptionID string, params UpdateItemsParams) (*RemoteSubscription, error)

	// Cancel schedules or applies a cancellation.
	Cancel(ctx context.Context, subscriptionID string, params CancelParams) (*RemoteSubscription, error)

	// Resume resumes a paused subscription.
	Resume(ctx context.Context, subscriptionID string, params ResumeParams) (*RemoteSubscription, error)

	// RetrievePrice resolves a price to its owning product.
	RetrievePrice(ctx context.Context, priceID string) (*RemotePrice, error)

	// CreateUsage reports usage against one metered item.
	CreateUsage(ctx context.Context, subscriptionID string, params UsageParams) (*Usage, error)

	// ListUsages returns usage records reported for one item's price.
	ListUsages(ctx context.Context, subscriptionID, priceID string) ([]Usage, error)
}

// RemoteSubscription is a typed view over the provider's subscription
// response, limited to the fields the reconciler reads.
type RemoteSubscription struct {
	ID              string
	Status          Status
	Items           []RemoteItem
	CurrentTermEnd  time.Time
	CancelledAt     *time.Time
	TrialEnd        *time.Time
	ResourceVersion int64
}

// RemoteItem is one item entry of the remote subscription. Quantity is nil
// for metered items.
type RemoteItem struct {
	PriceID  string
	Quantity *int
}

// RemotePrice is the slice of the provider's price resource the reconciler
// needs to mirror item rows locally.
type RemotePrice struct {
	ID        string
	ProductID string
}

// UpdateItemsParams is the payload for RemoteGateway.UpdateItems. Nil
// pointer fields are omitted from the remote request.
type UpdateItemsParams struct {
	// ReplaceItemsList replaces the full remote item list instead of
	// merging the given items into it.
	ReplaceItemsList bool
	Items            []RemoteItem

	Prorate            *bool
	TrialEnd           *time.Time // zero time requests an immediate trial end
	CouponIDs          []string
	InvoiceImmediately bool
	BillingCycleAnchor *time.Time

	// ExpectedResourceVersion, when non-zero, asks a capable gateway to
	// reject the write if the remote subscription changed since the
	// version was observed.
	ExpectedResourceVersion int64
}

// CancelParams is the payload for RemoteGateway.Cancel.
type CancelParams struct {
	Option          CancelOption
	CancelAt        *time.Time // required for CancelSpecificDate
	CreditOption    *CreditOption
	UnbilledCharges *UnbilledChargesOption
}

// ResumeParams is the payload for RemoteGateway.Resume.
type ResumeParams struct {
	Option ResumeOption
}

// UsageParams is the payload for RemoteGateway.CreateUsage.
type UsageParams struct {
	ItemPriceID string
	Quantity    int
	UsageDate   time.Time
}
