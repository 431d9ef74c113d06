package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nfrund/chaosarena/internal/app"
	"github.com/nfrund/chaosarena/internal/config"
	"github.com/nfrund/chaosarena/internal/logging"
)

var hostFlags struct {
	addr        string
	tickHz      int
	broadcastHz int
	difficulty  float64
	autopilot   bool
	commentary  string
	catalog     string
}

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Run an arena host",
	Long: `Runs the authoritative match. Viewers connect to /ws; the status page is
served on /, the control API under /api.

Flags override the matching ARENA_* and COMMENTARY_* environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.New().Get()
		applyHostFlags(cmd, &cfg)
		logger := logging.New(cfg.LogFormat, cfg.LogLevel)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return app.New(cfg, logger).Run(ctx)
	},
}

func applyHostFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = hostFlags.addr
	}
	if flags.Changed("tick-hz") && hostFlags.tickHz > 0 {
		cfg.TickHz = hostFlags.tickHz
	}
	if flags.Changed("broadcast-hz") && hostFlags.broadcastHz > 0 {
		cfg.BroadcastHz = hostFlags.broadcastHz
	}
	if flags.Changed("difficulty") && hostFlags.difficulty > 0 {
		cfg.Difficulty = hostFlags.difficulty
	}
	if flags.Changed("autopilot") {
		cfg.Autopilot = hostFlags.autopilot
	}
	if flags.Changed("commentary") {
		cfg.CommentaryMode = hostFlags.commentary
	}
	if flags.Changed("catalog") {
		cfg.CatalogPath = hostFlags.catalog
	}
}

func init() {
	f := hostCmd.Flags()
	f.StringVar(&hostFlags.addr, "addr", ":8080", "listen address")
	f.IntVar(&hostFlags.tickHz, "tick-hz", 60, "simulation ticks per second")
	f.IntVar(&hostFlags.broadcastHz, "broadcast-hz", 20, "snapshots per second")
	f.Float64Var(&hostFlags.difficulty, "difficulty", 1, "ambient spawn multiplier")
	f.BoolVar(&hostFlags.autopilot, "autopilot", false, "let the demo pilot move and shoot")
	f.StringVar(&hostFlags.commentary, "commentary", "script", "commentary mode: script, http or off")
	f.StringVar(&hostFlags.catalog, "catalog", "", "JSON catalog file (default built-in)")
	rootCmd.AddCommand(hostCmd)
}
