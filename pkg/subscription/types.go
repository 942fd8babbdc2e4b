package subscription

import "time"

// Status mirrors the billing provider's subscription status values.
type Status string

const (
	StatusFuture      Status = "future"
	StatusInTrial     Status = "in_trial"
	StatusActive      Status = "active"
	StatusNonRenewing Status = "non_renewing"
	StatusPaused      Status = "paused"
	StatusCancelled   Status = "cancelled"
)

// Proration is the tri-state proration flag attached to mutating remote
// calls. ProrateDefault omits the flag so the provider applies its own
// site-level default.
type Proration int

const (
	ProrateDefault Proration = iota
	ProrateOn
	ProrateOff
)

// Flag returns the proration flag as a nullable boolean for the remote
// request payload. Nil means "not set".
func (p Proration) Flag() *bool {
	switch p {
	case ProrateOn:
		v := true
		return &v
	case ProrateOff:
		v := false
		return &v
	default:
		return nil
	}
}

// CreditOption maps proration behavior to the provider's credit handling
// mode for charges already billed in the current term.
func (p Proration) CreditOption() CreditOption {
	switch p {
	case ProrateOn:
		return CreditProrate
	case ProrateOff:
		return CreditFull
	default:
		return CreditNone
	}
}

// CreditOption selects how the provider credits current-term charges on
// cancellation.
type CreditOption string

const (
	CreditProrate CreditOption = "prorate"
	CreditFull    CreditOption = "full"
	CreditNone    CreditOption = "none"
)

// CancelOption selects when a cancellation takes effect.
type CancelOption string

const (
	CancelEndOfTerm    CancelOption = "end_of_term"
	CancelSpecificDate CancelOption = "specific_date"
	CancelImmediately  CancelOption = "immediately"
)

// UnbilledChargesOption controls what happens to unbilled charges on an
// immediate cancellation.
type UnbilledChargesOption string

const (
	UnbilledChargesInvoice UnbilledChargesOption = "invoice"
	UnbilledChargesDelete  UnbilledChargesOption = "delete"
)

// ResumeOption selects when a paused subscription resumes.
type ResumeOption string

const ResumeImmediately ResumeOption = "immediately"

// PriceChange is one price entry of a swap operation. A nil Quantity on a
// single-price swap inherits the subscription's current quantity; on a
// metered item it stays unset.
type PriceChange struct {
	PriceID  string
	Quantity *int
}

// Usage is one reported usage record for a metered item.
type Usage struct {
	ID          string
	ItemPriceID string
	Quantity    int
	UsageDate   time.Time
}

func intPtr(v int) *int { return &v }
