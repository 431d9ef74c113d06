package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nfrund/chaosarena/internal/catalog"
	"github.com/nfrund/chaosarena/internal/config"
	"github.com/nfrund/chaosarena/internal/logging"
	"github.com/nfrund/chaosarena/internal/viewer"
)

var viewerFlags struct {
	url      string
	name     string
	catalog  string
	interval time.Duration
}

var viewerCmd = &cobra.Command{
	Use:   "viewer",
	Short: "Join a host as a viewer",
	Long: `Connects to a host, joins its room and prints a summary line every
interval. Type help for the commands. Losing the host ends the session with
a non-zero exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.New().Get()
		// The console owns stdout.
		logger := slog.New(logging.NewHandler(os.Stderr, cfg.LogFormat, "warn"))

		cat, err := loadCatalog(viewerFlags.catalog)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		session, err := viewer.Dial(ctx, viewerFlags.url, viewerFlags.name, viewer.Options{Catalog: cat, Logger: logger})
		if err != nil {
			return fmt.Errorf("join %s: %w", viewerFlags.url, err)
		}
		defer session.Close()
		go func() { _ = session.Run(ctx) }()

		fmt.Fprintf(cmd.OutOrStdout(), "joined %s as %s (%s)\n", viewerFlags.url, viewerFlags.name, session.ID)
		return viewer.NewConsole(session, cmd.OutOrStdout()).Run(ctx, cmd.InOrStdin(), viewerFlags.interval)
	},
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(afero.NewOsFs(), path)
}

func init() {
	f := viewerCmd.Flags()
	f.StringVar(&viewerFlags.url, "url", "ws://localhost:8080/ws", "host websocket URL")
	f.StringVar(&viewerFlags.name, "name", "Viewer", "display name")
	f.StringVar(&viewerFlags.catalog, "catalog", "", "JSON catalog file matching the host's")
	f.DurationVar(&viewerFlags.interval, "interval", time.Second, "summary interval")
	rootCmd.AddCommand(viewerCmd)
}
