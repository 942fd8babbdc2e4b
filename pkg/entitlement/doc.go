// Package entitlement aggregates feature grants from a customer's
// subscriptions, caches them, and evaluates access decisions against a
// pluggable policy.
//
// The chain is: AccessVerifier asks the Cache for the customer's
// entitlements, the Cache falls back to the Aggregator on a miss
// (collapsing concurrent misses into one fetch), and the Aggregator unions
// the entitlements of each subscription reported by an EntitlementSource.
// The Verifier then validates requested features against the feature
// registry before deciding, so a stale registry surfaces as
// MISSING_FEATURE_IN_DB instead of a misleading denial.
//
// # Usage
//
//	agg := entitlement.NewAggregator(
//		entitlement.NewStoreSubscriptionSource(subStore),
//		entitlement.NewChargebeeSource(),
//	)
//	cache := entitlement.NewCache(entitlement.NewRedisCacheStore(rdb), agg, cfg)
//	verifier := entitlement.NewVerifier(cache, registry,
//		entitlement.WithFeatureDefaults(map[string]bool{"api-rate-limit": true}),
//	)
//
//	requirements := entitlement.NewRequirements()
//	requirements.Require("reports.export", "advanced-reports")
//
//	if err := requirements.Enforce(ctx, verifier, ownerID, "reports.export"); err != nil {
//		// errors.Is(err, entitlement.ErrAccessDenied) vs ErrMissingFeature
//	}
//
// Cache entries are not invalidated when subscriptions mutate; they expire
// by TTL (the configured session lifetime) or via Cache.Set. Deployments
// that need immediate consistency call Cache.Set after reconciling.
package entitlement
