package cmd

import (
	"github.com/spf13/cobra"

	"github.com/novem-io/novem-webview/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize novem-webview configuration with an interactive wizard",
	Long:  `Runs an interactive wizard and writes the answers to the config file (.novem-webview.yml unless --config is given).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
