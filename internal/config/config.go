// Package config loads service configuration from a YAML file with
// environment variable overrides for secrets and connection strings.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/logging"
)

// Config is the root configuration of the service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Exchange ExchangeConfig `yaml:"exchange"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Cache    CacheConfig    `yaml:"cache"`
	Storage  StorageConfig  `yaml:"storage"`
	Gate     GateConfig     `yaml:"gate"`
	Log      logging.Config `yaml:"log"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

type ExchangeConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	Referer   string        `yaml:"referer"`
	UserAgent string        `yaml:"user_agent"`
}

// RefreshConfig controls the periodic detail refresh cycle.
type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`

	// Concurrency bounds in-flight detail fetches per batch.
	Concurrency int `yaml:"concurrency"`

	// TopN is how many tokens the dashboard shows.
	TopN int `yaml:"top_n"`

	// InitialExtra widens the first load beyond TopN so the initial
	// volume ranking has headroom.
	InitialExtra int `yaml:"initial_extra"`

	// PrioritizeCompetitions front-loads competition tokens in the
	// initial batch.
	PrioritizeCompetitions bool `yaml:"prioritize_competitions"`
}

// CacheConfig holds per-endpoint proxy cache TTLs.
type CacheConfig struct {
	TokenListTTL time.Duration `yaml:"token_list_ttl"`
	TickerTTL    time.Duration `yaml:"ticker_ttl"`
	KlinesTTL    time.Duration `yaml:"klines_ttl"`
}

// StorageConfig selects storage backends by connection string. Empty
// DSNs fall back to in-memory stores.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

type GateConfig struct {
	Secret string `yaml:"secret"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Exchange: ExchangeConfig{
			Timeout: 15 * time.Second,
		},
		Refresh: RefreshConfig{
			Interval:               30 * time.Second,
			Concurrency:            3,
			TopN:                   20,
			InitialExtra:           5,
			PrioritizeCompetitions: true,
		},
		Cache: CacheConfig{
			TokenListTTL: 5 * time.Minute,
			TickerTTL:    5 * time.Second,
			KlinesTTL:    30 * time.Second,
		},
		Storage: StorageConfig{
			MongoDatabase: "alphascan",
		},
		Log: logging.Config{
			Level:      "info",
			TimeFormat: time.RFC3339,
		},
	}
}

// Load reads configuration from path, applying defaults first and
// environment overrides last. A missing file is not an error so the
// service can run on defaults plus environment.
func Load(path string) (*Config, error) {
	// .env is optional, env vars may come from the environment proper
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("EXCHANGE_BASE_URL"); v != "" {
		c.Exchange.BaseURL = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Storage.MongoURI = v
	}
	if v := os.Getenv("MONGO_DB"); v != "" {
		c.Storage.MongoDatabase = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		c.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("PRIVATE_PASS"); v != "" {
		c.Gate.Secret = v
	}
}

func (c *Config) validate() error {
	if c.Refresh.Concurrency < 1 {
		return fmt.Errorf("refresh.concurrency must be at least 1, got %d", c.Refresh.Concurrency)
	}
	if c.Refresh.TopN < 1 {
		return fmt.Errorf("refresh.top_n must be at least 1, got %d", c.Refresh.TopN)
	}
	if c.Storage.PostgresDSN != "" && c.Storage.MongoURI != "" {
		return fmt.Errorf("storage: postgres_dsn and mongo_uri are mutually exclusive")
	}
	return nil
}
