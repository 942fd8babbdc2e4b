package redis

import "time"

// Config holds Redis connection settings sourced from the environment.
type Config struct {
	ConnectionString string        `env:"REDIS_URL,required"`
	RetryAttempts    int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval    time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
}
