package config

import (
	"path/filepath"

	"github.com/novem-io/novem-webview/internal/fetcher"
	"github.com/novem-io/novem-webview/internal/theme"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = ".novem-webview.yml"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:                8420,
		DataDir:             ".novem-webview",
		FetchPolicy:         fetcher.PolicyLastCompleted,
		FetchTimeout:        "0s",
		BrowserPollInterval: "250ms",
		DarkClass:           theme.DefaultDarkClass,
	}
}

// DatabasePath returns the settings database location inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "webview.db")
}
