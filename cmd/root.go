package cmd

import (
	"github.com/spf13/cobra"

	"github.com/novem-io/novem-webview/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "novem-webview",
	Short: "Host bridge for the Novem embedded view",
	Long: `novem-webview keeps an embedded Novem view in sync with its host.
It accepts navigation and auth messages from the host, fetches the
visualization the host points at, selects the plot, mail or profile view
for the current route and mirrors the host theme into embedded frames.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
