package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays configuration from the process environment. A .env file
// in the working directory is loaded first if present; real environment
// variables win over it, and malformed values are ignored.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("UPMON_HTTP_ADDR"); v != "" {
		config.EndpointAddrHTTP = v
	}
	if v := os.Getenv("UPMON_STORE"); v != "" {
		config.StoreBackend = v
	}
	if v := os.Getenv("UPMON_DATA_DIR"); v != "" {
		config.DataDir = v
	}
	if v := os.Getenv("UPMON_DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("UPMON_HASHING_SECRET"); v != "" {
		config.HashingSecret = v
	}
	if v := os.Getenv("UPMON_HASHER"); v != "" {
		config.Hasher = v
	}
	if v := os.Getenv("UPMON_MAX_CHECKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.MaxChecks = n
		}
	}
	if v := os.Getenv("UPMON_TOKEN_VALIDITY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			config.TokenValidity = d
		}
	}
}
