package redis

import "errors"

var (
	ErrEmptyConnectionString = errors.New("empty connection string")
	ErrFailedToParseURL      = errors.New("failed to parse redis url")
	ErrFailedToConnect       = errors.New("failed to connect to redis")
	ErrHealthcheckFailed     = errors.New("redis healthcheck failed")
)
