package feature

import "errors"

var (
	// ErrFeatureNotFound indicates the requested feature has no row in the
	// registry, usually because the registry sync is stale.
	ErrFeatureNotFound = errors.New("feature not found in registry")

	ErrNoFeatures = errors.New("no features returned by the listing gateway")
)
