// Package migrations embeds the goose SQL migrations for the billing
// schema. Pass FS to pg.Migrate at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
