package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Telegram.Token = "123:abc"
	cfg.Telegram.WebhookURL = "https://bot.example.com"
	cfg.Collector.URL = "https://collector.example.com/exec"
	return cfg
}

func TestConfigYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "auditbot.yaml")

	cfg := validConfig()
	cfg.Collector.Timeout = 3 * time.Second
	cfg.Collector.RateLimit = 2.5
	cfg.Journal.Path = "deliveries.db"

	if err := WriteConfig(path, cfg); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}

	loaded, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}

	if loaded.Collector.Timeout != 3*time.Second {
		t.Errorf("Collector.Timeout: got %v, want 3s", loaded.Collector.Timeout)
	}
	if loaded.Collector.RateLimit != 2.5 {
		t.Errorf("Collector.RateLimit: got %v, want 2.5", loaded.Collector.RateLimit)
	}
	if loaded.Journal.Path != "deliveries.db" {
		t.Errorf("Journal.Path: got %q, want %q", loaded.Journal.Path, "deliveries.db")
	}
	if loaded.Telegram.Token != "123:abc" {
		t.Errorf("Telegram.Token: got %q", loaded.Telegram.Token)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Port != 8443 {
		t.Errorf("default Port: got %d, want 8443", cfg.Server.Port)
	}
	if cfg.Collector.Timeout != 7*time.Second {
		t.Errorf("default Collector.Timeout: got %v, want 7s", cfg.Collector.Timeout)
	}
	if !cfg.Telegram.DropPendingUpdates {
		t.Error("default DropPendingUpdates should be true")
	}
	if cfg.Catalog.Path != "questions.json" {
		t.Errorf("default Catalog.Path: got %q", cfg.Catalog.Path)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auditbot.yaml")
	partial := `collector:
  url: https://collector.example.com
server:
  port: 9000
`
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port: got %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.ListenAddr != "0.0.0.0" {
		t.Errorf("ListenAddr: got %q, want default", cfg.Server.ListenAddr)
	}
	if cfg.Collector.Timeout != 7*time.Second {
		t.Errorf("Collector.Timeout: got %v, want default 7s", cfg.Collector.Timeout)
	}
}

func TestReadConfigErrors(t *testing.T) {
	if _, err := ReadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := ReadConfig(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auditbot.yaml")
	if err := WriteConfig(path, validConfig()); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}

	t.Setenv("PORT", "8080")
	t.Setenv("COLLECTOR_TIMEOUT", "2s")
	t.Setenv("DROP_PENDING_UPDATES", "false")
	t.Setenv("QUESTIONS_PATH", "/etc/auditbot/questions.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Collector.Timeout != 2*time.Second {
		t.Errorf("Collector.Timeout: got %v, want 2s", cfg.Collector.Timeout)
	}
	if cfg.Telegram.DropPendingUpdates {
		t.Error("DropPendingUpdates should be overridden to false")
	}
	if cfg.Catalog.Path != "/etc/auditbot/questions.json" {
		t.Errorf("Catalog.Path: got %q", cfg.Catalog.Path)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("Token from file should survive: got %q", cfg.Telegram.Token)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "42:xyz")
	t.Setenv("PORT", "not-a-number")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for invalid PORT")
	}

	t.Setenv("PORT", "8443")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Telegram.Token != "42:xyz" {
		t.Errorf("Token: got %q", cfg.Telegram.Token)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing token", func(c *Config) { c.Telegram.Token = "" }, "Token"},
		{"plain http webhook", func(c *Config) { c.Telegram.WebhookURL = "http://bot.example.com" }, "WebhookURL"},
		{"missing collector", func(c *Config) { c.Collector.URL = "" }, "URL"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "Port"},
		{"zero timeout", func(c *Config) { c.Collector.Timeout = 0 }, "Timeout"},
		{"unknown log level", func(c *Config) { c.Log.Level = "trace" }, "Level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected validation errors, got %v", err)
			}
			if verrs[0].Field() != tt.field {
				t.Errorf("failing field: got %q, want %q", verrs[0].Field(), tt.field)
			}
		})
	}
}

func TestAddrAndWebhookEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.WebhookURL = "https://bot.example.com/"

	if got := cfg.Addr(); got != "0.0.0.0:8443" {
		t.Errorf("Addr: got %q", got)
	}
	if got := cfg.WebhookEndpoint(); got != "https://bot.example.com/123:abc" {
		t.Errorf("WebhookEndpoint: got %q", got)
	}
}
