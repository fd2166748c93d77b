package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/novem-io/novem-webview/internal/browser"
	"github.com/novem-io/novem-webview/internal/config"
	"github.com/novem-io/novem-webview/internal/db"
	"github.com/novem-io/novem-webview/internal/fetcher"
	"github.com/novem-io/novem-webview/internal/theme"
	"github.com/novem-io/novem-webview/internal/webview"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `novem-webview init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// openSettings opens the settings database under the configured data dir.
func openSettings(cfg *config.Config) (*db.DB, *theme.SettingsStore, error) {
	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return database, theme.NewSettingsStore(database), nil
}

// newApp mounts a view configured from cfg. checkOrigin guards the host
// websocket and may be nil when no server is running.
func newApp(cfg *config.Config, settings *theme.SettingsStore, checkOrigin func(r *http.Request) bool) *webview.App {
	return webview.New(webview.Options{
		Fetch: fetcher.Options{
			Policy:  cfg.FetchPolicy,
			Timeout: cfg.FetchTimeoutDuration(),
		},
		Modes:       settings,
		CheckOrigin: checkOrigin,
		Verbose:     verbose,
	})
}

// connectPage attaches to the configured browser and selects the page
// holding the view.
func connectPage(ctx context.Context, cfg *config.Config) (*browser.Browser, *browser.Page, error) {
	b, err := browser.Connect(ctx, cfg.BrowserControlURL)
	if err != nil {
		return nil, nil, err
	}
	page, err := b.Find(ctx, cfg.BrowserPage)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	page.SetPollInterval(cfg.PollInterval())
	if verbose {
		fmt.Fprintf(os.Stderr, "Attached to browser at %s\n", b.ControlURL())
	}
	return b, page, nil
}

// pageEnforcer persists the theme to the settings database and to the
// page's localStorage.
func pageEnforcer(cfg *config.Config, page *browser.Page, settings *theme.SettingsStore) *theme.Enforcer {
	e := theme.NewEnforcer(page, theme.Chain{settings, page}, cfg.DarkClass)
	e.SetVerbose(verbose)
	return e
}
