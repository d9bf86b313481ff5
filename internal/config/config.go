// Package config handles the bot's YAML config file and environment overrides.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration. Values come from DefaultConfig, then
// the optional YAML file, then the environment.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Server    ServerConfig    `yaml:"server"`
	Collector CollectorConfig `yaml:"collector"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Journal   JournalConfig   `yaml:"journal"`
	AuditLog  AuditLogConfig  `yaml:"audit_log"`
	Log       LogConfig       `yaml:"log"`
}

// TelegramConfig holds the bot credential and webhook settings.
type TelegramConfig struct {
	Token              string `yaml:"token" env:"TELEGRAM_TOKEN" validate:"required"`
	WebhookURL         string `yaml:"webhook_url" env:"WEBHOOK_URL" validate:"required,url,startswith=https://"`
	DropPendingUpdates bool   `yaml:"drop_pending_updates" env:"DROP_PENDING_UPDATES"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr" env:"LISTEN_ADDR" validate:"required"`
	Port       int    `yaml:"port" env:"PORT" validate:"min=1,max=65535"`
}

// CollectorConfig controls answer delivery.
type CollectorConfig struct {
	URL             string        `yaml:"url" env:"COLLECTOR_URL" validate:"required,url"`
	Timeout         time.Duration `yaml:"timeout" env:"COLLECTOR_TIMEOUT" validate:"gt=0"`
	RateLimit       float64       `yaml:"rate_limit" env:"COLLECTOR_RATE_LIMIT" validate:"gte=0"` // records/s, 0 = unlimited
	Burst           int           `yaml:"burst" env:"COLLECTOR_BURST" validate:"gte=0"`
	HealthThreshold int           `yaml:"health_threshold" env:"COLLECTOR_HEALTH_THRESHOLD" validate:"gte=1"`
}

// CatalogConfig locates the question catalog.
type CatalogConfig struct {
	Path string `yaml:"path" env:"QUESTIONS_PATH" validate:"required"`
}

// JournalConfig locates the delivery journal. Empty disables it.
type JournalConfig struct {
	Path string `yaml:"path" env:"JOURNAL_PATH"`
}

// AuditLogConfig locates the JSONL audit trail. Empty disables it.
type AuditLogConfig struct {
	Path string `yaml:"path" env:"AUDIT_LOG_PATH"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"LOG_FORMAT" validate:"oneof=text json"`
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			DropPendingUpdates: true,
		},
		Server: ServerConfig{
			ListenAddr: "0.0.0.0",
			Port:       8443,
		},
		Collector: CollectorConfig{
			Timeout:         7 * time.Second,
			HealthThreshold: 5,
		},
		Catalog: CatalogConfig{
			Path: "questions.json",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ReadConfig reads a YAML config file on top of the defaults.
// Keys missing from the file keep their default values.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// WriteConfig writes cfg to path as YAML, creating parent directories.
func WriteConfig(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Load builds the effective configuration. path may be empty, in which case
// only defaults and the environment apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = ReadConfig(path); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the settings needed to serve the bot.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr is the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.ListenAddr, strconv.Itoa(c.Server.Port))
}

// WebhookEndpoint is the URL registered with Telegram. The path segment is
// the bot token.
func (c *Config) WebhookEndpoint() string {
	return strings.TrimRight(c.Telegram.WebhookURL, "/") + "/" + c.Telegram.Token
}
