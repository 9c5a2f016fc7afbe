package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Refresh.Interval != 30*time.Second {
		t.Errorf("expected 30s refresh interval, got %v", cfg.Refresh.Interval)
	}
	if cfg.Refresh.Concurrency != 3 {
		t.Errorf("expected concurrency 3, got %d", cfg.Refresh.Concurrency)
	}
	if cfg.Cache.TokenListTTL != 5*time.Minute {
		t.Errorf("expected 5m token list ttl, got %v", cfg.Cache.TokenListTTL)
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port, got %q", cfg.Server.Port)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  port: \"9090\"\nrefresh:\n  interval: 10s\n  concurrency: 5\n  top_n: 20\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %q", cfg.Server.Port)
	}
	if cfg.Refresh.Interval != 10*time.Second {
		t.Errorf("expected 10s interval, got %v", cfg.Refresh.Interval)
	}
	if cfg.Refresh.Concurrency != 5 {
		t.Errorf("expected concurrency 5, got %d", cfg.Refresh.Concurrency)
	}
	// Untouched sections keep defaults
	if cfg.Cache.TickerTTL != 5*time.Second {
		t.Errorf("expected default ticker ttl, got %v", cfg.Cache.TickerTTL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PRIVATE_PASS", "s3cret")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/alphascan")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Gate.Secret != "s3cret" {
		t.Errorf("expected gate secret from env, got %q", cfg.Gate.Secret)
	}
	if cfg.Storage.PostgresDSN != "postgres://localhost/alphascan" {
		t.Errorf("expected postgres dsn from env, got %q", cfg.Storage.PostgresDSN)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cfg := Default()
	cfg.Refresh.Concurrency = 0
	if err := cfg.validate(); err == nil {
		t.Error("expected error for zero concurrency")
	}

	cfg = Default()
	cfg.Storage.PostgresDSN = "postgres://x"
	cfg.Storage.MongoURI = "mongodb://y"
	if err := cfg.validate(); err == nil {
		t.Error("expected error for two competition backends")
	}
}
