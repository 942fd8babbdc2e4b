package feature

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chargebee/chargebee-go/v3"
	featureAction "github.com/chargebee/chargebee-go/v3/actions/feature"
	featureModel "github.com/chargebee/chargebee-go/v3/models/feature"
)

const chargebeePageSize = 100

// ChargebeeListingGateway implements ListingGateway over the Chargebee
// feature resource. The Chargebee SDK must already be configured (see
// subscription.NewChargebeeGateway).
type ChargebeeListingGateway struct{}

// NewChargebeeListingGateway returns a gateway listing Chargebee features.
func NewChargebeeListingGateway() *ChargebeeListingGateway {
	return &ChargebeeListingGateway{}
}

func (g *ChargebeeListingGateway) List(ctx context.Context, offset string) (*Page, error) {
	req := &featureModel.ListRequestParams{
		Limit: chargebee.Int32(chargebeePageSize),
	}
	if offset != "" {
		req.Offset = offset
	}

	res, err := featureAction.List(req).Contexts(ctx).ListRequest()
	if err != nil {
		return nil, fmt.Errorf("list chargebee features: %w", err)
	}

	page := &Page{NextOffset: res.NextOffset}
	for _, entry := range res.List {
		f, err := fromChargebeeFeature(entry.Feature)
		if err != nil {
			return nil, err
		}
		page.Features = append(page.Features, *f)
	}
	return page, nil
}

func fromChargebeeFeature(f *featureModel.Feature) (*Feature, error) {
	metadata, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal feature %s: %w", f.Id, err)
	}
	return &Feature{
		ChargebeeID: f.Id,
		Name:        f.Name,
		Type:        Type(strings.ToLower(string(f.Type))),
		Metadata:    metadata,
	}, nil
}
