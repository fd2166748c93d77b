package config

import "github.com/novem-io/novem-webview/internal/fetcher"

// Config is the top-level novem-webview configuration, corresponding to
// .novem-webview.yml.
type Config struct {
	Port            int    `yaml:"port" koanf:"port"`
	DataDir         string `yaml:"data_dir" koanf:"data_dir"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`

	FetchPolicy  fetcher.Policy `yaml:"fetch_policy" koanf:"fetch_policy"`
	FetchTimeout string         `yaml:"fetch_timeout" koanf:"fetch_timeout"`

	// BrowserControlURL is the Chrome debugger URL theme sync attaches to.
	// Empty disables theme sync for serve and launches a headless Chrome
	// for the theme command.
	BrowserControlURL   string `yaml:"browser_control_url" koanf:"browser_control_url"`
	BrowserPage         string `yaml:"browser_page" koanf:"browser_page"`
	BrowserPollInterval string `yaml:"browser_poll_interval" koanf:"browser_poll_interval"`
	DarkClass           string `yaml:"dark_class" koanf:"dark_class"`
}
