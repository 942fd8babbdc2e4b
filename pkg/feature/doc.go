// Package feature mirrors the billing provider's feature definitions
// locally so entitlement checks can validate requested features without a
// remote call per request.
//
// Syncer walks the provider's paginated feature list, normalizes each
// feature name into an enumeration case name, disambiguates collisions
// with a short ID hash, and upserts every definition into a Registry
// (in-memory or postgres). The returned cases feed GenerateEnumSource,
// which emits a Go constants file for compile-time feature references;
// cmd/featuregen wires the two together.
package feature
