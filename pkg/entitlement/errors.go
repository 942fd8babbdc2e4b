package entitlement

import "errors"

var (
	// ErrCacheMiss indicates the cache store holds no value for the key.
	ErrCacheMiss = errors.New("entitlements not cached")

	// ErrAccessDenied indicates a well-registered feature is legitimately
	// not granted to the customer.
	ErrAccessDenied = errors.New("access denied by entitlements")

	// ErrMissingFeature indicates a requested feature has no row in the
	// feature registry. This is a registry-sync problem, not a denial, and
	// must stay distinguishable from ErrAccessDenied.
	ErrMissingFeature = errors.New("requested feature missing from registry")
)

// ErrorCode is the typed code handed to the verifier's error hook.
type ErrorCode string

const (
	CodeMissingFeatureInDB ErrorCode = "MISSING_FEATURE_IN_DB"
	CodeAccessDenied       ErrorCode = "ACCESS_DENIED"
)
