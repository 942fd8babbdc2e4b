package subscription

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Reconciler translates local mutation intents into remote gateway calls
// and folds the remote response back into the local subscription record.
// Every operation commits local state only after the remote call succeeds,
// so a failed call leaves the passed subscription untouched.
//
// Cross-cutting billing behaviors (proration, coupons, trial handling, the
// billing cycle anchor) are carried as reconciler state and attached to the
// remote calls that support them. The With* methods return a shallow copy,
// so a configured reconciler can be shared safely:
//
//	r.WithProration(subscription.ProrateOff).Swap(ctx, sub, prices...)
type Reconciler struct {
	gateway RemoteGateway
	store   Store
	log     *slog.Logger

	proration    Proration
	couponIDs    []string
	trialExpires *time.Time
	anchor       *time.Time
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithLogger attaches a logger used for debug-level operation tracing.
func WithLogger(log *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if log != nil {
			r.log = log
		}
	}
}

// WithDefaultProration sets the proration behavior new reconcilers start
// with. Defaults to ProrateDefault (defer to the provider).
func WithDefaultProration(p Proration) ReconcilerOption {
	return func(r *Reconciler) { r.proration = p }
}

// NewReconciler creates a Reconciler. Panics if gateway or store is nil to
// fail fast during initialization.
func NewReconciler(gateway RemoteGateway, store Store, opts ...ReconcilerOption) *Reconciler {
	if gateway == nil {
		panic("subscription: RemoteGateway is required")
	}
	if store == nil {
		panic("subscription: Store is required")
	}
	r := &Reconciler{
		gateway: gateway,
		store:   store,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reconciler) clone() *Reconciler {
	out := *r
	out.couponIDs = slices.Clone(r.couponIDs)
	return &out
}

// WithProration returns a copy of the reconciler with the given proration
// behavior for subsequent operations.
func (r *Reconciler) WithProration(p Proration) *Reconciler {
	out := r.clone()
	out.proration = p
	return out
}

// WithCoupons returns a copy that re-applies the given coupons on the next
// swap.
func (r *Reconciler) WithCoupons(couponIDs ...string) *Reconciler {
	out := r.clone()
	out.couponIDs = slices.Clone(couponIDs)
	return out
}

// TrialUntil returns a copy that carries the given trial end into the next
// swap instead of ending the trial.
func (r *Reconciler) TrialUntil(t time.Time) *Reconciler {
	out := r.clone()
	out.trialExpires = &t
	return out
}

// AnchorBillingCycleOn returns a copy that anchors the billing cycle on the
// given date for the next swap.
func (r *Reconciler) AnchorBillingCycleOn(t time.Time) *Reconciler {
	out := r.clone()
	out.anchor = &t
	return out
}

// commit persists the mutated copy and only then folds it back into the
// caller's value.
func (r *Reconciler) commit(ctx context.Context, sub *Subscription, next Subscription) error {
	next.UpdatedAt = time.Now()
	if err := r.store.Save(ctx, &next); err != nil {
		return err
	}
	*sub = next
	return nil
}

// Cancel schedules a cancellation for the end of the current term. While
// trialing, the grace period ends when the trial would have ended;
// otherwise it ends with the current billing term.
func (r *Reconciler) Cancel(ctx context.Context, sub *Subscription) error {
	remote, err := r.gateway.Cancel(ctx, sub.ChargebeeID, CancelParams{Option: CancelEndOfTerm})
	if err != nil {
		return err
	}

	next := copySubscription(*sub)
	next.Status = remote.Status
	if sub.OnTrial() {
		next.EndsAt = copyPtr(sub.TrialEndsAt)
	} else {
		endsAt := remote.CurrentTermEnd
		next.EndsAt = &endsAt
	}

	r.log.DebugContext(ctx, "subscription cancellation scheduled",
		slog.String("subscription_id", sub.ChargebeeID), slog.Time("ends_at", *next.EndsAt))

	return r.commit(ctx, sub, next)
}

// CancelAt schedules a cancellation at an explicit future instant. Credit
// handling for already-billed charges follows the proration behavior in
// effect.
func (r *Reconciler) CancelAt(ctx context.Context, sub *Subscription, endsAt time.Time) error {
	credit := r.proration.CreditOption()
	remote, err := r.gateway.Cancel(ctx, sub.ChargebeeID, CancelParams{
		Option:       CancelSpecificDate,
		CancelAt:     &endsAt,
		CreditOption: &credit,
	})
	if err != nil {
		return err
	}

	next := copySubscription(*sub)
	next.Status = remote.Status
	next.EndsAt = copyPtr(remote.CancelledAt)
	return r.commit(ctx, sub, next)
}

// CancelNow cancels the subscription immediately, crediting unbilled
// charges according to the proration behavior in effect.
func (r *Reconciler) CancelNow(ctx context.Context, sub *Subscription) error {
	credit := r.proration.CreditOption()
	if _, err := r.gateway.Cancel(ctx, sub.ChargebeeID, CancelParams{
		Option:       CancelImmediately,
		CreditOption: &credit,
	}); err != nil {
		return err
	}
	return r.markAsCanceled(ctx, sub)
}

// CancelNowAndInvoice cancels immediately and requests an invoice for
// unbilled charges instead of crediting them.
func (r *Reconciler) CancelNowAndInvoice(ctx context.Context, sub *Subscription) error {
	unbilled := UnbilledChargesInvoice
	if _, err := r.gateway.Cancel(ctx, sub.ChargebeeID, CancelParams{
		Option:          CancelImmediately,
		UnbilledCharges: &unbilled,
	}); err != nil {
		return err
	}
	return r.markAsCanceled(ctx, sub)
}

func (r *Reconciler) markAsCanceled(ctx context.Context, sub *Subscription) error {
	now := time.Now()
	next := copySubscription(*sub)
	next.Status = StatusCancelled
	next.EndsAt = &now
	return r.commit(ctx, sub, next)
}

// Resume resumes a paused subscription immediately. Returns ErrNotPaused
// without contacting the gateway if the subscription is not paused.
func (r *Reconciler) Resume(ctx context.Context, sub *Subscription) error {
	if !sub.Paused() {
		return ErrNotPaused
	}

	remote, err := r.gateway.Resume(ctx, sub.ChargebeeID, ResumeParams{Option: ResumeImmediately})
	if err != nil {
		return err
	}

	next := copySubscription(*sub)
	next.Status = remote.Status
	return r.commit(ctx, sub, next)
}

// EndTrial ends an active trial immediately. No-op when no trial is set.
func (r *Reconciler) EndTrial(ctx context.Context, sub *Subscription) error {
	if sub.TrialEndsAt == nil {
		return nil
	}

	trialEnd := time.Time{}
	if _, err := r.gateway.UpdateItems(ctx, sub.ChargebeeID, UpdateItemsParams{
		TrialEnd: &trialEnd,
		Prorate:  r.proration.Flag(),
	}); err != nil {
		return err
	}

	next := copySubscription(*sub)
	next.TrialEndsAt = nil
	return r.commit(ctx, sub, next)
}

// ExtendTrial moves the trial end to a future date. Fails before any remote
// write when the date is not in the future or the remote status does not
// allow trial changes.
func (r *Reconciler) ExtendTrial(ctx context.Context, sub *Subscription, date time.Time) error {
	if !date.After(time.Now()) {
		return ErrPastTrialDate
	}

	remote, err := r.gateway.Retrieve(ctx, sub.ChargebeeID)
	if err != nil {
		return err
	}
	switch remote.Status {
	case StatusFuture, StatusInTrial, StatusCancelled:
	default:
		return ErrTrialNotExtendable
	}

	if _, err := r.gateway.UpdateItems(ctx, sub.ChargebeeID, UpdateItemsParams{
		TrialEnd: &date,
		Prorate:  r.proration.Flag(),
	}); err != nil {
		return err
	}

	next := copySubscription(*sub)
	next.TrialEndsAt = &date
	return r.commit(ctx, sub, next)
}

// Swap replaces the subscription's whole item list with the given prices.
// A single-price swap inherits the current quantity unless the price change
// overrides it. Tracked coupons and trial end are re-applied; without a
// tracked trial end the remote trial is ended.
func (r *Reconciler) Swap(ctx context.Context, sub *Subscription, prices ...PriceChange) error {
	return r.swap(ctx, sub, prices, false)
}

// SwapAndInvoice swaps prices and invoices the resulting charges
// immediately.
func (r *Reconciler) SwapAndInvoice(ctx context.Context, sub *Subscription, prices ...PriceChange) error {
	return r.swap(ctx, sub, prices, true)
}

func (r *Reconciler) swap(ctx context.Context, sub *Subscription, prices []PriceChange, invoiceNow bool) error {
	if len(prices) == 0 {
		return ErrNoPricesProvided
	}

	singlePriceSwap := sub.HasSinglePrice() && len(prices) == 1

	items := make([]RemoteItem, 0, len(prices))
	for _, price := range prices {
		quantity := copyPtr(price.Quantity)
		if quantity == nil && singlePriceSwap && sub.Quantity != nil {
			quantity = copyPtr(sub.Quantity)
		}
		items = append(items, RemoteItem{PriceID: price.PriceID, Quantity: quantity})
	}

	trialEnd := time.Time{}
	if r.trialExpires != nil {
		trialEnd = *r.trialExpires
	}

	remote, err := r.gateway.UpdateItems(ctx, sub.ChargebeeID, UpdateItemsParams{
		ReplaceItemsList:   true,
		Items:              items,
		Prorate:            r.proration.Flag(),
		TrialEnd:           &trialEnd,
		CouponIDs:          slices.Clone(r.couponIDs),
		InvoiceImmediately: invoiceNow,
		BillingCycleAnchor: copyPtr(r.anchor),
	})
	if err != nil {
		return err
	}

	next := copySubscription(*sub)
	refreshAttributes(&next, remote)
	if err := r.refreshItems(ctx, &next, remote); err != nil {
		return err
	}

	r.log.DebugContext(ctx, "subscription prices swapped",
		slog.String("subscription_id", sub.ChargebeeID), slog.Int("items", len(remote.Items)))

	return r.commit(ctx, sub, next)
}

// AddPrice appends one price with the given quantity to the subscription.
func (r *Reconciler) AddPrice(ctx context.Context, sub *Subscription, price string, quantity int) error {
	return r.addPrice(ctx, sub, price, intPtr(quantity), false)
}

// AddPriceAndInvoice appends one price and invoices immediately.
func (r *Reconciler) AddPriceAndInvoice(ctx context.Context, sub *Subscription, price string, quantity int) error {
	return r.addPrice(ctx, sub, price, intPtr(quantity), true)
}

// AddMeteredPrice appends one metered price with no fixed quantity.
func (r *Reconciler) AddMeteredPrice(ctx context.Context, sub *Subscription, price string) error {
	return r.addPrice(ctx, sub, price, nil, false)
}

// AddMeteredPriceAndInvoice appends one metered price and invoices
// immediately.
func (r *Reconciler) AddMeteredPriceAndInvoice(ctx context.Context, sub *Subscription, price string) error {
	return r.addPrice(ctx, sub, price, nil, true)
}

func (r *Reconciler) addPrice(ctx context.Context, sub *Subscription, price string, quantity *int, invoiceNow bool) error {
	if sub.HasPrice(price) {
		return ErrDuplicatePrice
	}

	remote, err := r.gateway.UpdateItems(ctx, sub.ChargebeeID, UpdateItemsParams{
		Items:              []RemoteItem{{PriceID: price, Quantity: copyPtr(quantity)}},
		Prorate:            r.proration.Flag(),
		InvoiceImmediately: invoiceNow,
	})
	if err != nil {
		return err
	}

	remotePrice, err := r.gateway.RetrievePrice(ctx, price)
	if err != nil {
		return err
	}

	next := copySubscription(*sub)
	next.Items = append(next.Items, Item{
		ID:               uuid.New(),
		SubscriptionID:   sub.ID,
		ChargebeePrice:   price,
		ChargebeeProduct: remotePrice.ProductID,
		Quantity:         copyPtr(quantity),
	})
	refreshAttributes(&next, remote)
	return r.commit(ctx, sub, next)
}

// RemovePrice removes one price from the subscription. A subscription must
// always keep at least one item, so removing the last price fails locally.
func (r *Reconciler) RemovePrice(ctx context.Context, sub *Subscription, price string) error {
	if sub.HasSinglePrice() {
		return ErrCannotRemoveLastPrice
	}
	if _, err := sub.FindItem(price); err != nil {
		return err
	}

	current, err := r.gateway.Retrieve(ctx, sub.ChargebeeID)
	if err != nil {
		return err
	}

	items := make([]RemoteItem, 0, len(current.Items))
	for _, item := range current.Items {
		if item.PriceID != price {
			items = append(items, item)
		}
	}

	remote, err := r.gateway.UpdateItems(ctx, sub.ChargebeeID, UpdateItemsParams{
		ReplaceItemsList:        true,
		Items:                   items,
		Prorate:                 r.proration.Flag(),
		ExpectedResourceVersion: current.ResourceVersion,
	})
	if err != nil {
		return err
	}

	next := copySubscription(*sub)
	next.Items = slices.DeleteFunc(next.Items, func(it Item) bool {
		return it.ChargebeePrice == price
	})
	refreshAttributes(&next, remote)
	return r.commit(ctx, sub, next)
}

// IncrementQuantity raises the quantity of one item by count. The price is
// required when the subscription has multiple items.
func (r *Reconciler) IncrementQuantity(ctx context.Context, sub *Subscription, count int, price string) error {
	item, err := sub.findItemWithValidation(price)
	if err != nil {
		return err
	}
	current := 0
	if item.Quantity != nil {
		current = *item.Quantity
	}
	return r.UpdateQuantity(ctx, sub, current+count, price, false)
}

// IncrementAndInvoice raises the quantity and invoices immediately.
func (r *Reconciler) IncrementAndInvoice(ctx context.Context, sub *Subscription, count int, price string) error {
	item, err := sub.findItemWithValidation(price)
	if err != nil {
		return err
	}
	current := 0
	if item.Quantity != nil {
		current = *item.Quantity
	}
	return r.UpdateQuantity(ctx, sub, current+count, price, true)
}

// DecrementQuantity lowers the quantity of one item by count, flooring at 1.
func (r *Reconciler) DecrementQuantity(ctx context.Context, sub *Subscription, count int, price string) error {
	item, err := sub.findItemWithValidation(price)
	if err != nil {
		return err
	}
	current := 0
	if item.Quantity != nil {
		current = *item.Quantity
	}
	return r.UpdateQuantity(ctx, sub, max(1, current-count), price, false)
}

// UpdateQuantity sets the quantity of one item, leaving the other remote
// items untouched. The price is required when the subscription has multiple
// items.
func (r *Reconciler) UpdateQuantity(ctx context.Context, sub *Subscription, quantity int, price string, invoiceNow bool) error {
	item, err := sub.findItemWithValidation(price)
	if err != nil {
		return err
	}

	current, err := r.gateway.Retrieve(ctx, sub.ChargebeeID)
	if err != nil {
		return err
	}

	items := make([]RemoteItem, 0, len(current.Items))
	for _, remoteItem := range current.Items {
		if remoteItem.PriceID == item.ChargebeePrice {
			remoteItem.Quantity = intPtr(quantity)
		}
		items = append(items, remoteItem)
	}

	remote, err := r.gateway.UpdateItems(ctx, sub.ChargebeeID, UpdateItemsParams{
		ReplaceItemsList:        true,
		Items:                   items,
		Prorate:                 r.proration.Flag(),
		InvoiceImmediately:      invoiceNow,
		ExpectedResourceVersion: current.ResourceVersion,
	})
	if err != nil {
		return err
	}

	next := copySubscription(*sub)
	next.Status = remote.Status
	if next.HasSinglePrice() {
		next.Quantity = intPtr(quantity)
	}
	for i := range next.Items {
		if next.Items[i].ChargebeePrice == item.ChargebeePrice {
			next.Items[i].Quantity = intPtr(quantity)
		}
	}
	return r.commit(ctx, sub, next)
}

// UpdateItem pushes a remote update for one existing item without touching
// the rest of the item list. A nil quantity marks the item as metered.
func (r *Reconciler) UpdateItem(ctx context.Context, sub *Subscription, price string, quantity *int) error {
	item, err := sub.FindItem(price)
	if err != nil {
		return err
	}

	remote, err := r.gateway.UpdateItems(ctx, sub.ChargebeeID, UpdateItemsParams{
		Items:   []RemoteItem{{PriceID: item.ChargebeePrice, Quantity: copyPtr(quantity)}},
		Prorate: r.proration.Flag(),
	})
	if err != nil {
		return err
	}

	next := copySubscription(*sub)
	for i := range next.Items {
		if next.Items[i].ChargebeePrice == item.ChargebeePrice {
			next.Items[i].Quantity = copyPtr(quantity)
		}
	}
	refreshAttributes(&next, remote)
	return r.commit(ctx, sub, next)
}

// SwapItem swaps a single item to a new price, preserving the remaining
// item list. The new item inherits the old quantity unless overridden.
func (r *Reconciler) SwapItem(ctx context.Context, sub *Subscription, price string, change PriceChange) error {
	item, err := sub.FindItem(price)
	if err != nil {
		return err
	}

	quantity := copyPtr(change.Quantity)
	if quantity == nil {
		quantity = copyPtr(item.Quantity)
	}

	current, err := r.gateway.Retrieve(ctx, sub.ChargebeeID)
	if err != nil {
		return err
	}

	items := make([]RemoteItem, 0, len(current.Items))
	for _, remoteItem := range current.Items {
		if remoteItem.PriceID == price {
			remoteItem = RemoteItem{PriceID: change.PriceID, Quantity: copyPtr(quantity)}
		}
		items = append(items, remoteItem)
	}

	remote, err := r.gateway.UpdateItems(ctx, sub.ChargebeeID, UpdateItemsParams{
		ReplaceItemsList:        true,
		Items:                   items,
		Prorate:                 r.proration.Flag(),
		ExpectedResourceVersion: current.ResourceVersion,
	})
	if err != nil {
		return err
	}

	remotePrice, err := r.gateway.RetrievePrice(ctx, change.PriceID)
	if err != nil {
		return err
	}

	next := copySubscription(*sub)
	for i := range next.Items {
		if next.Items[i].ChargebeePrice == price {
			next.Items[i].ChargebeePrice = change.PriceID
			next.Items[i].ChargebeeProduct = remotePrice.ProductID
			next.Items[i].Quantity = copyPtr(quantity)
		}
	}
	refreshAttributes(&next, remote)
	return r.commit(ctx, sub, next)
}

// ApplyCoupons attaches the given coupons to the remote subscription.
func (r *Reconciler) ApplyCoupons(ctx context.Context, sub *Subscription, couponIDs ...string) error {
	_, err := r.gateway.UpdateItems(ctx, sub.ChargebeeID, UpdateItemsParams{
		CouponIDs: slices.Clone(couponIDs),
	})
	return err
}

// SyncStatus refreshes the local status from the remote subscription.
func (r *Reconciler) SyncStatus(ctx context.Context, sub *Subscription) error {
	remote, err := r.gateway.Retrieve(ctx, sub.ChargebeeID)
	if err != nil {
		return err
	}

	next := copySubscription(*sub)
	next.Status = remote.Status
	return r.commit(ctx, sub, next)
}

// ReportUsage reports usage for one metered item. The price is required
// when the subscription has multiple items. A zero usage time defaults to
// now.
func (r *Reconciler) ReportUsage(ctx context.Context, sub *Subscription, quantity int, at time.Time, price string) (*Usage, error) {
	item, err := sub.findItemWithValidation(price)
	if err != nil {
		return nil, err
	}
	if at.IsZero() {
		at = time.Now()
	}
	return r.gateway.CreateUsage(ctx, sub.ChargebeeID, UsageParams{
		ItemPriceID: item.ChargebeePrice,
		Quantity:    quantity,
		UsageDate:   at,
	})
}

// UsageRecords returns the usage records reported for one metered item.
// The price is required when the subscription has multiple items.
func (r *Reconciler) UsageRecords(ctx context.Context, sub *Subscription, price string) ([]Usage, error) {
	item, err := sub.findItemWithValidation(price)
	if err != nil {
		return nil, err
	}
	return r.gateway.ListUsages(ctx, sub.ChargebeeID, item.ChargebeePrice)
}

// refreshAttributes mirrors status and the single-price fields from the
// remote response. With more than one remote item the single-price fields
// are cleared and the item rows are authoritative.
func refreshAttributes(sub *Subscription, remote *RemoteSubscription) {
	sub.Status = remote.Status
	if len(remote.Items) == 1 {
		first := remote.Items[0]
		priceID := first.PriceID
		sub.ChargebeePrice = &priceID
		sub.Quantity = copyPtr(first.Quantity)
	} else {
		sub.ChargebeePrice = nil
		sub.Quantity = nil
	}
}

// refreshItems rebuilds the local item rows from the remote item list.
// Items no longer present remotely are dropped; new prices are resolved to
// their product through the gateway.
func (r *Reconciler) refreshItems(ctx context.Context, sub *Subscription, remote *RemoteSubscription) error {
	items := make([]Item, 0, len(remote.Items))
	for _, remoteItem := range remote.Items {
		existing, err := sub.FindItem(remoteItem.PriceID)
		if err == nil {
			existing.Quantity = copyPtr(remoteItem.Quantity)
			items = append(items, *existing)
			continue
		}

		remotePrice, err := r.gateway.RetrievePrice(ctx, remoteItem.PriceID)
		if err != nil {
			return err
		}
		items = append(items, Item{
			ID:               uuid.New(),
			SubscriptionID:   sub.ID,
			ChargebeePrice:   remoteItem.PriceID,
			ChargebeeProduct: remotePrice.ProductID,
			Quantity:         copyPtr(remoteItem.Quantity),
		})
	}
	sub.Items = items
	return nil
}
