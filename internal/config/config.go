package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Coin maps a display name to its KuCoin trading pair.
type Coin struct {
	Name   string `yaml:"name"`
	Symbol string `yaml:"symbol"`
}

// Config holds all application configuration.
type Config struct {
	Coins      []Coin `yaml:"coins"`
	DataSource struct {
		Source  string `yaml:"source"` // "kucoin" or "mock"
		BaseURL string `yaml:"base_url"`
	} `yaml:"data_source"`
	Storage struct {
		EndpointURL     string `yaml:"endpoint_url"`
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
		Bucket          string `yaml:"bucket"`
		RegistryKey     string `yaml:"registry_key"`
	} `yaml:"storage"`
	Schedule struct {
		UploadCron string `yaml:"upload_cron"`
	} `yaml:"schedule"`
	Analysis struct {
		LookbackDays  int    `yaml:"lookback_days"`
		ChartDays     int    `yaml:"chart_days"`
		ChartInterval string `yaml:"chart_interval"`
		ChartWindow   int    `yaml:"chart_window"`
	} `yaml:"analysis"`
	RequestDelayMS int `yaml:"request_delay_ms"`
	Database       struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("R2_ACCESS_KEY_ID"); v != "" {
		cfg.Storage.AccessKeyID = v
	}
	if v := os.Getenv("R2_SECRET_ACCESS_KEY"); v != "" {
		cfg.Storage.SecretAccessKey = v
	}
	if v := os.Getenv("R2_ENDPOINT_URL"); v != "" {
		cfg.Storage.EndpointURL = v
	}
	if v := os.Getenv("R2_BUCKET_NAME"); v != "" {
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("DATA_SOURCE"); v != "" {
		cfg.DataSource.Source = v
	}
	if v := os.Getenv("KUCOIN_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("CRON_UPLOAD"); v != "" {
		cfg.Schedule.UploadCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("REQUEST_DELAY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.RequestDelayMS = ms
		}
	}

	// Defaults
	if len(cfg.Coins) == 0 {
		cfg.Coins = []Coin{
			{Name: "Arbitrum", Symbol: "ARB-USDT"},
			{Name: "Bitcoin", Symbol: "BTC-USDT"},
			{Name: "Solana", Symbol: "SOL-USDT"},
			{Name: "Litecoin", Symbol: "LTC-USDT"},
			{Name: "Pepe", Symbol: "PEPE-USDT"},
		}
	}
	if cfg.DataSource.Source == "" {
		cfg.DataSource.Source = "kucoin"
	}
	if cfg.Schedule.UploadCron == "" {
		// Every 2 hours, matching the artifact cache lifetime.
		cfg.Schedule.UploadCron = "0 0 */2 * * *"
	}
	if cfg.Analysis.LookbackDays == 0 {
		cfg.Analysis.LookbackDays = 730
	}
	if cfg.Analysis.ChartDays == 0 {
		cfg.Analysis.ChartDays = 7
	}
	if cfg.Analysis.ChartInterval == "" {
		cfg.Analysis.ChartInterval = "1hour"
	}
	if cfg.Analysis.ChartWindow == 0 {
		cfg.Analysis.ChartWindow = 200
	}
	if cfg.RequestDelayMS == 0 {
		cfg.RequestDelayMS = 500
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/drawdown_sentinel.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if len(c.Coins) == 0 {
		return fmt.Errorf("at least one coin is required")
	}
	for i, coin := range c.Coins {
		if coin.Name == "" || coin.Symbol == "" {
			return fmt.Errorf("coin %d: name and symbol are required", i)
		}
	}
	if c.Storage.EndpointURL == "" {
		return fmt.Errorf("storage.endpoint_url is required")
	}
	if c.Storage.AccessKeyID == "" {
		return fmt.Errorf("storage.access_key_id is required")
	}
	if c.Storage.SecretAccessKey == "" {
		return fmt.Errorf("storage.secret_access_key is required")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required")
	}
	if c.Analysis.ChartInterval != "1day" && c.Analysis.ChartInterval != "1hour" {
		return fmt.Errorf("analysis.chart_interval must be 1day or 1hour")
	}
	return nil
}

// RequestDelay returns the pause between per-symbol API calls.
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMS) * time.Millisecond
}
