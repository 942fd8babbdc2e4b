package pg

import "time"

// Config holds Postgres connection settings sourced from the
// environment.
type Config struct {
	ConnectionString string        `env:"DATABASE_URL,required"`
	MaxOpenConns     int32         `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	MinOpenConns     int32         `env:"DATABASE_MIN_OPEN_CONNS" envDefault:"2"`
	MaxConnLifetime  time.Duration `env:"DATABASE_MAX_CONN_LIFETIME" envDefault:"1h"`
	MaxConnIdleTime  time.Duration `env:"DATABASE_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	RetryAttempts    int           `env:"DATABASE_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval    time.Duration `env:"DATABASE_RETRY_INTERVAL" envDefault:"5s"`
}
