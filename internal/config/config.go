// Package config loads service configuration from an optional YAML file with
// environment variable overrides. A local .env file is honoured when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the API server needs at startup.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr"`

	// PGDSN enables the Postgres archive when non-empty.
	PGDSN string `yaml:"pg_dsn"`

	// RateBurst and RatePerSec tune the per-client rate limiter.
	RateBurst  int     `yaml:"rate_burst"`
	RatePerSec float64 `yaml:"rate_per_sec"`

	// OracleFeedURL points at the exchange-rate feed. Empty disables the
	// oracle endpoints.
	OracleFeedURL string        `yaml:"oracle_feed_url"`
	OracleMaxAge  time.Duration `yaml:"oracle_max_age"`

	// ContentStoreURL points at the content-addressed storage gateway.
	ContentStoreURL string `yaml:"content_store_url"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		Addr:         ":8080",
		RateBurst:    20,
		RatePerSec:   10,
		OracleMaxAge: 5 * time.Minute,
	}
}

// Load reads the YAML file at path (if it exists), then applies
// RENTLEDGER_* environment overrides. Missing files are not an error.
func Load(path string) (Config, error) {
	// Best effort: a missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Fall through to env overrides.
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if v := os.Getenv("RENTLEDGER_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("RENTLEDGER_PG_DSN"); v != "" {
		cfg.PGDSN = v
	}
	if v := os.Getenv("RENTLEDGER_RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("RENTLEDGER_RATE_BURST: %w", err)
		}
		cfg.RateBurst = n
	}
	if v := os.Getenv("RENTLEDGER_RATE_PER_SEC"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("RENTLEDGER_RATE_PER_SEC: %w", err)
		}
		cfg.RatePerSec = f
	}
	if v := os.Getenv("RENTLEDGER_ORACLE_FEED_URL"); v != "" {
		cfg.OracleFeedURL = v
	}
	if v := os.Getenv("RENTLEDGER_ORACLE_MAX_AGE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("RENTLEDGER_ORACLE_MAX_AGE: %w", err)
		}
		cfg.OracleMaxAge = d
	}
	if v := os.Getenv("RENTLEDGER_CONTENT_STORE_URL"); v != "" {
		cfg.ContentStoreURL = v
	}

	if cfg.Addr == "" {
		return Config{}, fmt.Errorf("addr must not be empty")
	}
	if cfg.RateBurst <= 0 || cfg.RatePerSec <= 0 {
		return Config{}, fmt.Errorf("rate limit settings must be positive")
	}
	return cfg, nil
}
