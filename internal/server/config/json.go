package config

import (
	"encoding/json"
	"os"

	"github.com/upmonhq/upmon/internal/flagx"
	"github.com/upmonhq/upmon/internal/timex"
)

// JsonConfig is the DTO for the optional JSON config file. Duration fields
// use timex.Duration so both "1h" strings and integer nanoseconds parse.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	StoreBackend     string         `json:"store_backend"`
	DataDir          string         `json:"data_dir"`
	DatabaseDSN      string         `json:"database_dsn"`
	HashingSecret    string         `json:"hashing_secret"`
	Hasher           string         `json:"hasher"`
	MaxChecks        int            `json:"max_checks"`
	TokenValidity    timex.Duration `json:"token_validity"`
}

// parseJson overlays values from the JSON file named by -c/-config, if any.
// A missing flag means no file is loaded; an unreadable or invalid file is
// a startup error and panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	b, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(b, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.StoreBackend != "" {
		config.StoreBackend = c.StoreBackend
	}
	if c.DataDir != "" {
		config.DataDir = c.DataDir
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.HashingSecret != "" {
		config.HashingSecret = c.HashingSecret
	}
	if c.Hasher != "" {
		config.Hasher = c.Hasher
	}
	if c.MaxChecks > 0 {
		config.MaxChecks = c.MaxChecks
	}
	if c.TokenValidity > 0 {
		config.TokenValidity = c.TokenValidity.Std()
	}
}
