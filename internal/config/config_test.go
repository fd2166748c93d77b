package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/novem-io/novem-webview/internal/fetcher"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.FetchPolicy != fetcher.PolicyLastCompleted {
		t.Errorf("expected default fetch_policy %q, got %q", fetcher.PolicyLastCompleted, cfg.FetchPolicy)
	}
	if cfg.DarkClass != "vscode-dark" {
		t.Errorf("expected default dark_class %q, got %q", "vscode-dark", cfg.DarkClass)
	}
	if cfg.FetchTimeoutDuration() != 0 {
		t.Errorf("expected no fetch timeout by default, got %v", cfg.FetchTimeoutDuration())
	}
	if cfg.PollInterval() != 250*time.Millisecond {
		t.Errorf("expected 250ms poll interval, got %v", cfg.PollInterval())
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.novem-webview.yml")

	original := DefaultConfig()
	original.Port = 9000
	original.DataDir = "state"
	original.AllowAllOrigins = true
	original.FetchPolicy = fetcher.PolicyLatestIssued
	original.FetchTimeout = "15s"
	original.BrowserControlURL = "ws://127.0.0.1:9222/devtools/browser/x"

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if *loaded != *original {
		t.Errorf("round trip: got %+v, want %+v", *loaded, *original)
	}
	if loaded.FetchTimeoutDuration() != 15*time.Second {
		t.Errorf("fetch timeout: got %v", loaded.FetchTimeoutDuration())
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("expected defaults, got %+v", *cfg)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("NOVEM_FETCH_POLICY", "latest_issued")
	t.Setenv("NOVEM_PORT", "9100")
	t.Setenv("NOVEM_ALLOW_ALL_ORIGINS", "true")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.FetchPolicy != fetcher.PolicyLatestIssued {
		t.Errorf("env override failed: got %q, want %q", loaded.FetchPolicy, fetcher.PolicyLatestIssued)
	}
	if loaded.Port != 9100 {
		t.Errorf("port override failed: got %d", loaded.Port)
	}
	if !loaded.AllowAllOrigins {
		t.Error("allow_all_origins override failed")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"negative port", func(c *Config) { c.Port = -1 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, true},
		{"unknown policy", func(c *Config) { c.FetchPolicy = "first_wins" }, true},
		{"empty policy", func(c *Config) { c.FetchPolicy = "" }, true},
		{"bad timeout", func(c *Config) { c.FetchTimeout = "soon" }, true},
		{"negative timeout", func(c *Config) { c.FetchTimeout = "-1s" }, true},
		{"empty timeout", func(c *Config) { c.FetchTimeout = "" }, false},
		{"zero poll interval", func(c *Config) { c.BrowserPollInterval = "0s" }, true},
		{"empty dark class", func(c *Config) { c.DarkClass = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "state"
	if got := cfg.DatabasePath(); got != filepath.Join("state", "webview.db") {
		t.Errorf("DatabasePath() = %q", got)
	}
}
