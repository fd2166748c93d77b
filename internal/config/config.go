package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NOVEM_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (NOVEM_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: NOVEM_FETCH_POLICY -> fetch_policy, etc.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if !c.FetchPolicy.Valid() {
		return fmt.Errorf("invalid fetch_policy %q: must be one of last_completed, latest_issued", c.FetchPolicy)
	}

	if d, err := parseDuration("fetch_timeout", c.FetchTimeout); err != nil {
		return err
	} else if d < 0 {
		return fmt.Errorf("fetch_timeout must be non-negative")
	}

	if d, err := parseDuration("browser_poll_interval", c.BrowserPollInterval); err != nil {
		return err
	} else if d <= 0 {
		return fmt.Errorf("browser_poll_interval must be positive")
	}

	if c.DarkClass == "" {
		return fmt.Errorf("dark_class is required")
	}

	return nil
}

// FetchTimeoutDuration returns fetch_timeout; zero means no timeout.
func (c *Config) FetchTimeoutDuration() time.Duration {
	d, _ := parseDuration("fetch_timeout", c.FetchTimeout)
	return d
}

// PollInterval returns browser_poll_interval.
func (c *Config) PollInterval() time.Duration {
	d, _ := parseDuration("browser_poll_interval", c.BrowserPollInterval)
	return d
}

func parseDuration(key, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
