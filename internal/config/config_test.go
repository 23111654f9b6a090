package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ARTICLES_DIR", "TRAINING_DIR", "USER_AGENT", "SOURCES_CONFIG_PATH",
		"FETCH_TIMEOUT_SECONDS", "REQUESTS_PER_SECOND", "SHUFFLE_SEED", "FETCH_RETRIES", "FETCH_RETRY_DELAY_MS", "DEBUG"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ArticlesDir != "articles" || cfg.TrainingDir != "training" {
		t.Errorf("unexpected dirs: %q %q", cfg.ArticlesDir, cfg.TrainingDir)
	}
	if cfg.RequestTimeout != 20*time.Second {
		t.Errorf("RequestTimeout = %v, want 20s", cfg.RequestTimeout)
	}
	if cfg.Debug {
		t.Errorf("Debug should default to false")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ARTICLES_DIR", "corpus")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "5")
	t.Setenv("REQUESTS_PER_SECOND", "0.5")
	t.Setenv("SHUFFLE_SEED", "42")
	t.Setenv("CATALOG_PATH", "")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ArticlesDir != "corpus" {
		t.Errorf("ArticlesDir = %q", cfg.ArticlesDir)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.RequestsPerSecond != 0.5 {
		t.Errorf("RequestsPerSecond = %v", cfg.RequestsPerSecond)
	}
	if cfg.ShuffleSeed != 42 {
		t.Errorf("ShuffleSeed = %d", cfg.ShuffleSeed)
	}
	if cfg.CatalogPath != "" {
		t.Errorf("empty CATALOG_PATH should disable the catalog, got %q", cfg.CatalogPath)
	}
	if !cfg.Debug {
		t.Errorf("Debug should be true")
	}
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT_SECONDS", "-3")
	t.Setenv("REQUESTS_PER_SECOND", "abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RequestTimeout != 20*time.Second {
		t.Errorf("invalid timeout should keep default, got %v", cfg.RequestTimeout)
	}
	if cfg.RequestsPerSecond != 2 {
		t.Errorf("invalid rate should keep default, got %v", cfg.RequestsPerSecond)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{ArticlesDir: "a", TrainingDir: "t", RequestTimeout: time.Second, RequestsPerSecond: 1}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	cfg.ArticlesDir = ""
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected error for empty ArticlesDir")
	}
}

func TestLoadRetrySettings(t *testing.T) {
	t.Setenv("FETCH_RETRIES", "2")
	t.Setenv("FETCH_RETRY_DELAY_MS", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FetchRetries != 2 || cfg.RetryDelay != 250*time.Millisecond {
		t.Errorf("retries = %d, delay = %v", cfg.FetchRetries, cfg.RetryDelay)
	}

	t.Setenv("FETCH_RETRIES", "-1")
	if cfg, _ := Load(); cfg.FetchRetries != 0 {
		t.Errorf("negative FETCH_RETRIES should be ignored, got %d", cfg.FetchRetries)
	}
}
