package config

import "errors"

var (
	// ErrParsingConfig wraps env parsing failures with the target type name.
	ErrParsingConfig = errors.New("failed to parse config")

	// ErrLoadingEnv wraps dotenv file read failures.
	ErrLoadingEnv = errors.New("failed to load env file")
)
