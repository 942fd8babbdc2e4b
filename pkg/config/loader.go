package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	loadEnvOnce sync.Once
	loadEnvErr  error
)

// Load reads environment variables into a config struct of type T.
//
// On the first call it also loads .env files into the process
// environment: .env is read if present, and any paths listed in the
// ENV_FILES variable (comma-separated) are read before it. Missing
// files are ignored so the same binary runs in containers where
// configuration arrives through real environment variables; files that
// exist but cannot be parsed fail the load with ErrLoadingEnv.
func Load[T any]() (T, error) {
	var cfg T

	loadEnvOnce.Do(func() { loadEnvErr = loadDotEnv() })
	if loadEnvErr != nil {
		return cfg, errors.Join(ErrLoadingEnv, loadEnvErr)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Join(ErrParsingConfig, fmt.Errorf("%T: %w", cfg, err))
	}
	return cfg, nil
}

// MustLoad is Load that panics on error. Intended for program
// initialization where a missing required variable is fatal.
func MustLoad[T any]() T {
	cfg, err := Load[T]()
	if err != nil {
		panic(err)
	}
	return cfg
}

func loadDotEnv() error {
	var paths []string
	if extra := os.Getenv("ENV_FILES"); extra != "" {
		paths = strings.Split(extra, ",")
	}
	paths = append(paths, ".env")

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}
