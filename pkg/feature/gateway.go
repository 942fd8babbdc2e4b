package feature

import "context"

// Page is one page of remote feature definitions. An empty NextOffset
// means the listing is exhausted.
type Page struct {
	Features   []Feature
	NextOffset string
}

// ListingGateway walks the provider's feature list with an offset cursor.
type ListingGateway interface {
	List(ctx context.Context, offset string) (*Page, error)
}
