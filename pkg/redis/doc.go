// Package redis provides Redis connectivity for the entitlements
// cache: URL-based configuration, connection with startup retries,
// and a readiness probe.
package redis
