package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is the local record of a customer's recurring subscription.
// ChargebeePrice and Quantity are populated only while the subscription has
// exactly one item; with multiple items both are nil and the item rows are
// authoritative.
type Subscription struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	ChargebeeID    string // provider's subscription ID
	Status         Status
	ChargebeePrice *string
	Quantity       *int
	TrialEndsAt    *time.Time
	EndsAt         *time.Time // set once a cancellation is scheduled; marks the grace period
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Items          []Item
}

// Item is one price line of a subscription. A nil Quantity denotes a
// metered item billed by reported usage.
type Item struct {
	ID               uuid.UUID
	SubscriptionID   uuid.UUID
	ChargebeePrice   string
	ChargebeeProduct string
	Quantity         *int
}

// OnTrial reports whether the trial window is still open.
func (s *Subscription) OnTrial() bool {
	return s.TrialEndsAt != nil && s.TrialEndsAt.After(time.Now())
}

// HasExpiredTrial reports whether a trial was set and has already ended.
func (s *Subscription) HasExpiredTrial() bool {
	return s.TrialEndsAt != nil && s.TrialEndsAt.Before(time.Now())
}

// Active reports whether the remote status is "active".
func (s *Subscription) Active() bool {
	return s.Status == StatusActive
}

// Paused reports whether the remote status is "paused".
func (s *Subscription) Paused() bool {
	return s.Status == StatusPaused
}

// Canceled reports whether a cancellation has been scheduled or applied.
func (s *Subscription) Canceled() bool {
	return s.EndsAt != nil
}

// OnGracePeriod reports whether a scheduled cancellation has not yet taken
// effect.
func (s *Subscription) OnGracePeriod() bool {
	return s.EndsAt != nil && s.EndsAt.After(time.Now())
}

// Ended reports whether the subscription is canceled and past its grace
// period.
func (s *Subscription) Ended() bool {
	return s.Canceled() && !s.OnGracePeriod()
}

// Valid reports whether the subscription still grants access: active, on
// trial, or within the grace period.
func (s *Subscription) Valid() bool {
	return s.Active() || s.OnTrial() || s.OnGracePeriod()
}

// Recurring reports whether the subscription will renew: not on trial and
// not canceled.
func (s *Subscription) Recurring() bool {
	return !s.OnTrial() && !s.Canceled()
}

// HasSinglePrice reports whether the subscription carries exactly one item.
func (s *Subscription) HasSinglePrice() bool {
	return s.ChargebeePrice != nil
}

// HasMultiplePrices reports whether the subscription carries more than one
// item.
func (s *Subscription) HasMultiplePrices() bool {
	return !s.HasSinglePrice()
}

// HasPrice reports whether any item uses the given price.
func (s *Subscription) HasPrice(price string) bool {
	if s.HasSinglePrice() {
		return *s.ChargebeePrice == price
	}
	for _, item := range s.Items {
		if item.ChargebeePrice == price {
			return true
		}
	}
	return false
}

// HasProduct reports whether any item belongs to the given product.
func (s *Subscription) HasProduct(product string) bool {
	for _, item := range s.Items {
		if item.ChargebeeProduct == product {
			return true
		}
	}
	return false
}

// FindItem returns the item for the given price, or ErrItemNotFound.
func (s *Subscription) FindItem(price string) (*Item, error) {
	for i := range s.Items {
		if s.Items[i].ChargebeePrice == price {
			return &s.Items[i], nil
		}
	}
	return nil, ErrItemNotFound
}

// findItemWithValidation resolves an item by price, or, when no price is
// given, ensures the subscription has a single item and returns it.
func (s *Subscription) findItemWithValidation(price string) (*Item, error) {
	if price != "" {
		return s.FindItem(price)
	}
	if s.HasMultiplePrices() {
		return nil, ErrAmbiguousPrice
	}
	if len(s.Items) == 0 {
		return nil, ErrItemNotFound
	}
	return &s.Items[0], nil
}
