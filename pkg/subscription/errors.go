package subscription

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrItemNotFound         = errors.New("subscription item not found")

	// Validation errors. These are raised locally, before any remote call,
	// and never leave partial state behind.
	ErrNoPricesProvided      = errors.New("at least one price is required when swapping")
	ErrDuplicatePrice        = errors.New("price is already attached to the subscription")
	ErrCannotRemoveLastPrice = errors.New("cannot remove the last price from the subscription")
	ErrAmbiguousPrice        = errors.New("a price argument is required because the subscription has multiple prices")
	ErrPastTrialDate         = errors.New("extending a trial requires a date in the future")
	ErrTrialNotExtendable    = errors.New("subscription status does not allow extending the trial")
	ErrNotPaused             = errors.New("only paused subscriptions can be resumed")

	// ErrStaleSubscription is returned by gateways that support conditional
	// updates when the expected resource version no longer matches the
	// remote one. The default Chargebee gateway never returns it.
	ErrStaleSubscription = errors.New("remote subscription was modified concurrently")

	ErrMissingSite   = errors.New("chargebee site is required")
	ErrMissingAPIKey = errors.New("chargebee API key is required")
)
