// Package config loads the service configuration from YAML or JSON.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete service configuration.
type Config struct {
	Database DatabaseConfig `json:"database" yaml:"database"`
	Oanda    OandaConfig    `json:"oanda" yaml:"oanda"`
	Bitunix  BitunixConfig  `json:"bitunix" yaml:"bitunix"`
	Trading  TradingConfig  `json:"trading" yaml:"trading"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// DatabaseConfig locates the sqlite database.
type DatabaseConfig struct {
	Path string `json:"path" yaml:"path"`
}

// OandaConfig holds forex venue credentials. Environment selects the
// practice or live endpoint.
type OandaConfig struct {
	APIKey      string `json:"api_key" yaml:"api_key"`
	AccountID   string `json:"account_id" yaml:"account_id"`
	Environment string `json:"environment" yaml:"environment"` // "practice" or "live"
}

// BitunixConfig holds crypto venue settings. The public market
// endpoints need no credentials.
type BitunixConfig struct {
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// TradingConfig tunes the execution engine.
type TradingConfig struct {
	CommissionRate       float64 `json:"commission_rate" yaml:"commission_rate"`
	AllowNegativeBalance bool    `json:"allow_negative_balance" yaml:"allow_negative_balance"`
	QuoteRetryLimit      int     `json:"quote_retry_limit" yaml:"quote_retry_limit"`
	EvalInterval         string  `json:"eval_interval" yaml:"eval_interval"` // e.g. "5s", "1m"
}

// ParseEvalInterval converts the evaluation interval to time.Duration.
func (t TradingConfig) ParseEvalInterval() (time.Duration, error) {
	if t.EvalInterval == "" {
		return 0, nil
	}
	return time.ParseDuration(t.EvalInterval)
}

// LogConfig controls structured log output.
type LogConfig struct {
	Level string `json:"level" yaml:"level"` // debug, info, warn, error
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (format by extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Oanda.Environment != "practice" && c.Oanda.Environment != "live" {
		return fmt.Errorf("oanda.environment must be 'practice' or 'live'")
	}
	if c.Trading.CommissionRate < 0 {
		return fmt.Errorf("trading.commission_rate must not be negative")
	}
	if c.Trading.CommissionRate >= 1 {
		return fmt.Errorf("trading.commission_rate must be below 1")
	}
	if c.Trading.QuoteRetryLimit < 0 {
		return fmt.Errorf("trading.quote_retry_limit must not be negative")
	}
	if c.Trading.EvalInterval != "" {
		d, err := time.ParseDuration(c.Trading.EvalInterval)
		if err != nil {
			return fmt.Errorf("trading.eval_interval: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("trading.eval_interval must be positive")
		}
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}

// SlogLevel maps the configured level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "./brokerage.db",
		},
		Oanda: OandaConfig{
			Environment: "practice",
		},
		Trading: TradingConfig{
			CommissionRate:  0.001,
			QuoteRetryLimit: 3,
			EvalInterval:    "5s",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
