package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/novem-io/novem-webview/internal/theme"
)

var themeWatch bool

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Apply the host theme of a live page to its frames",
	Long: `Reads the host theme class from the page body, persists it and marks or
unmarks every accessible frame. With --watch it keeps doing so on every
class change until interrupted. Without browser_control_url a headless
Chrome is launched.`,
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

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b, page, err := connectPage(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		e := pageEnforcer(cfg, page, settings)
		mode, err := e.Enforce(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("theme: %s\n", mode)

		if !themeWatch {
			return nil
		}

		g, ctx := errgroup.WithContext(ctx)
		sub, err := theme.Observe(ctx, page, e)
		if err != nil {
			return err
		}
		g.Go(func() error {
			<-ctx.Done()
			sub.Close()
			return nil
		})
		g.Go(func() error {
			<-sub.Done()
			stop()
			return nil
		})
		fmt.Fprintln(os.Stderr, "Watching for theme changes (Ctrl-C to stop)...")
		return g.Wait()
	},
}

func init() {
	themeCmd.Flags().BoolVarP(&themeWatch, "watch", "w", false, "keep enforcing on every host theme change")
	rootCmd.AddCommand(themeCmd)
}
