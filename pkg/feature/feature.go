package feature

import "encoding/json"

// Type is the provider's feature type. Switch features carry a boolean
// value; the quantitative types carry values whose enforcement is
// application-specific.
type Type string

const (
	TypeSwitch   Type = "switch"
	TypeCustom   Type = "custom"
	TypeQuantity Type = "quantity"
	TypeRange    Type = "range"
)

// Feature is the local mirror of one remote feature definition, keyed by
// the provider's feature ID. Rows are written by Syncer and read-only
// everywhere else.
type Feature struct {
	ChargebeeID string
	Name        string
	Type        Type
	Metadata    json.RawMessage // raw provider payload, kept verbatim
}
