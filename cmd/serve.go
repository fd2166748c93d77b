package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/novem-io/novem-webview/internal/config"
	"github.com/novem-io/novem-webview/internal/server"
	"github.com/novem-io/novem-webview/internal/theme"
	"github.com/novem-io/novem-webview/internal/webview"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the view bridge with its HTTP API and host websocket",
	Long: `Starts the view bridge. The host connects to /ws/host and sends navigate
messages; the selected view and its data are served under /api/view.
When browser_control_url is set the host theme is mirrored into the
page's frames as it changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort != 0 {
			cfg.Port = servePort
		}

		database, settings, err := openSettings(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		srv := server.New(server.Config{
			Port:     cfg.Port,
			AllowAll: cfg.AllowAllOrigins,
		})

		app := newApp(cfg, settings, srv.CheckOrigin)
		defer app.Close()
		app.RegisterRoutes(srv.Router(), srv.API())

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		if cfg.BrowserControlURL != "" {
			g.Go(func() error {
				syncTheme(ctx, cfg, app, settings)
				return nil
			})
		}

		fmt.Fprintf(os.Stderr, "novem-webview v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", database.Path())
		fmt.Fprintf(os.Stderr, "  Fetch policy: %s\n", cfg.FetchPolicy)
		if cfg.BrowserControlURL != "" {
			fmt.Fprintf(os.Stderr, "  Theme sync: %s\n", cfg.BrowserControlURL)
		}

		return g.Wait()
	},
}

// syncTheme mirrors the host theme of the attached page until ctx is done.
// Failures are logged; the server keeps running without theme sync.
func syncTheme(ctx context.Context, cfg *config.Config, app *webview.App, settings *theme.SettingsStore) {
	b, page, err := connectPage(ctx, cfg)
	if err != nil {
		log.Printf("theme sync disabled: %v", err)
		return
	}
	defer b.Close()

	sub, err := app.WatchTheme(ctx, page, pageEnforcer(cfg, page, settings))
	if err != nil {
		log.Printf("theme sync disabled: %v", err)
		return
	}
	<-sub.Done()
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
