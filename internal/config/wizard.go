package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"

	"github.com/novem-io/novem-webview/internal/fetcher"
)

// fetchPolicies lists the wizard choices in display order.
var fetchPolicies = []struct {
	Policy fetcher.Policy
	Label  string
}{
	{fetcher.PolicyLastCompleted, "last_completed: every finished fetch is shown, the last to finish wins"},
	{fetcher.PolicyLatestIssued, "latest_issued: a new fetch cancels the previous one"},
}

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to novem-webview! Let's configure the bridge.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port for the view API and host websocket",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 || n > 65535 {
				return fmt.Errorf("enter a port between 0 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 2. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory for persisted settings",
		Default: cfg.DataDir,
	}
	if cfg.DataDir, err = dataPrompt.Run(); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 3. Fetch policy.
	labels := make([]string, len(fetchPolicies))
	for i, p := range fetchPolicies {
		labels[i] = p.Label
	}
	policyPrompt := promptui.Select{
		Label: "Select fetch policy",
		Items: labels,
	}
	policyIdx, _, err := policyPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("fetch policy selection: %w", err)
	}
	cfg.FetchPolicy = fetchPolicies[policyIdx].Policy

	// 4. Browser for theme sync.
	browserPrompt := promptui.Prompt{
		Label:   "Chrome debugger URL for theme sync (blank to disable)",
		Default: "",
	}
	if cfg.BrowserControlURL, err = browserPrompt.Run(); err != nil {
		return nil, fmt.Errorf("browser control url: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
