// Package config loads runtime settings for the harvest and train commands
// from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Corpus and model locations
	ArticlesDir string
	TrainingDir string
	CatalogPath string // sqlite run catalog, empty disables it

	// Source table override (YAML), empty uses the built-in table
	SourcesConfigPath string

	// Fetch settings
	RequestTimeout    time.Duration
	UserAgent         string
	RequestsPerSecond float64 // per host
	FetchRetries      int     // extra attempts after a transient failure
	RetryDelay        time.Duration

	// Corpus writer
	ShuffleSeed uint64 // 0 = seeded from the clock

	Debug bool
}

const (
	DefaultArticlesDir = "articles"
	DefaultTrainingDir = "training"
	DefaultCatalogPath = "catalog.db"
	DefaultUserAgent   = "newscorpus/1.0 (+corpus builder)"
)

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		ArticlesDir:       DefaultArticlesDir,
		TrainingDir:       DefaultTrainingDir,
		CatalogPath:       DefaultCatalogPath,
		RequestTimeout:    20 * time.Second,
		UserAgent:         DefaultUserAgent,
		RequestsPerSecond: 2,
		RetryDelay:        500 * time.Millisecond,
	}

	cfg.ArticlesDir = getEnvOrDefault("ARTICLES_DIR", cfg.ArticlesDir)
	cfg.TrainingDir = getEnvOrDefault("TRAINING_DIR", cfg.TrainingDir)
	cfg.UserAgent = getEnvOrDefault("USER_AGENT", cfg.UserAgent)
	cfg.SourcesConfigPath = os.Getenv("SOURCES_CONFIG_PATH")

	// An explicitly empty CATALOG_PATH turns the catalog off.
	if v, ok := os.LookupEnv("CATALOG_PATH"); ok {
		cfg.CatalogPath = v
	}

	if v := os.Getenv("FETCH_TIMEOUT_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RequestTimeout = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("REQUESTS_PER_SECOND"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil && val > 0 {
			cfg.RequestsPerSecond = val
		}
	}
	if v := os.Getenv("FETCH_RETRIES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			cfg.FetchRetries = val
		}
	}
	if v := os.Getenv("FETCH_RETRY_DELAY_MS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			cfg.RetryDelay = time.Duration(val) * time.Millisecond
		}
	}
	if v := os.Getenv("SHUFFLE_SEED"); v != "" {
		if val, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.ShuffleSeed = val
		}
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.ArticlesDir == "" {
		return fmt.Errorf("ARTICLES_DIR must not be empty")
	}
	if c.TrainingDir == "" {
		return fmt.Errorf("TRAINING_DIR must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT_SECONDS must be positive")
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("REQUESTS_PER_SECOND must be positive")
	}
	if c.FetchRetries < 0 {
		return fmt.Errorf("FETCH_RETRIES must not be negative")
	}
	return nil
}
