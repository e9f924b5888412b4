package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
scan_interval: 10m
concurrency: 8
database_path: /tmp/test.db
upwork:
  base_url: https://staging.upwork.com
  fetch_timeout: 15s
telegram:
  token: "abc123"
  timeout: 5s
notification:
  type: telegram
rate_limit:
  min_delay: 3s
webapp:
  enabled: true
  listen_addr: ":9090"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ScanInterval != 10*time.Minute {
		t.Errorf("ScanInterval = %v, want 10m", cfg.ScanInterval)
	}
	if cfg.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8", cfg.Concurrency)
	}
	if cfg.Upwork.BaseURL != "https://staging.upwork.com" {
		t.Errorf("Upwork.BaseURL = %q", cfg.Upwork.BaseURL)
	}
	if cfg.Upwork.FetchTimeout != 15*time.Second {
		t.Errorf("FetchTimeout = %v, want 15s", cfg.Upwork.FetchTimeout)
	}
	if cfg.Telegram.Token != "abc123" {
		t.Errorf("Telegram.Token = %q", cfg.Telegram.Token)
	}
	if cfg.RateLimit.MinDelay != 3*time.Second {
		t.Errorf("RateLimit.MinDelay = %v, want 3s", cfg.RateLimit.MinDelay)
	}
	if !cfg.WebApp.Enabled || cfg.WebApp.ListenAddr != ":9090" {
		t.Errorf("WebApp = %+v", cfg.WebApp)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
notification:
  type: log
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ScanInterval != 5*time.Minute {
		t.Errorf("ScanInterval = %v, want default 5m", cfg.ScanInterval)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want default 4", cfg.Concurrency)
	}
	if cfg.DatabasePath != "bot.db" {
		t.Errorf("DatabasePath = %q, want bot.db", cfg.DatabasePath)
	}
	if cfg.Upwork.BaseURL != "https://www.upwork.com" {
		t.Errorf("Upwork.BaseURL = %q", cfg.Upwork.BaseURL)
	}
	if cfg.Telegram.APIURL != "https://api.telegram.org" {
		t.Errorf("Telegram.APIURL = %q", cfg.Telegram.APIURL)
	}
	if cfg.WebApp.ListenAddr != ":8080" {
		t.Errorf("WebApp.ListenAddr = %q, want :8080", cfg.WebApp.ListenAddr)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "secret-token")
	path := writeConfig(t, `
telegram:
  token: "${TEST_BOT_TOKEN}"
notification:
  type: telegram
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "secret-token" {
		t.Errorf("Telegram.Token = %q, want expanded env value", cfg.Telegram.Token)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "scan_interval: [broken")
	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_ScanIntervalTooShort(t *testing.T) {
	path := writeConfig(t, `
scan_interval: 10s
notification:
  type: log
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected validation error for sub-minute scan interval")
	}
}

func TestLoad_TelegramWithoutToken(t *testing.T) {
	path := writeConfig(t, `
notification:
  type: telegram
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected validation error for telegram notifier without token")
	}
}

func TestLoad_UnknownNotifierType(t *testing.T) {
	path := writeConfig(t, `
notification:
  type: pager
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected validation error for unknown notifier type")
	}
}
