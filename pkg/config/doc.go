// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Define a struct with env tags and load it once at startup:
//
//	type Config struct {
//		DatabaseURL string `env:"DATABASE_URL,required"`
//		CachePrefix string `env:"ENTITLEMENTS_CACHE_PREFIX" envDefault:"entitlements"`
//	}
//
//	cfg := config.MustLoad[Config]()
//
// Nested structs compose: the billing config embeds the Chargebee,
// Postgres, and Redis sections so one Load call configures the whole
// stack.
package config
