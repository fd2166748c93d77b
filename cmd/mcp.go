package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/novem-io/novem-webview/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Drive the view over MCP on stdio",
	Long: `Starts a Model Context Protocol (MCP) server on stdio. The MCP client
plays the host: its navigate calls replace the view context, and the
view, its context and fetched data can be read back with tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, settings, err := openSettings(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		app := newApp(cfg, settings, nil)
		defer app.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = Version
		srv := mcpserver.NewServer(app)

		if cfg.BrowserControlURL != "" {
			b, page, err := connectPage(context.Background(), cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: enforce_theme unavailable: %v\n", err)
			} else {
				defer b.Close()
				srv.SetEnforcer(pageEnforcer(cfg, page, settings))
			}
		}

		fmt.Fprintf(os.Stderr, "novem-webview MCP server started on stdio (fetch_policy=%s)\n", cfg.FetchPolicy)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
