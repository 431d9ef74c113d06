package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "Chaos Arena host and viewer",
	Long: `Chaos Arena is a host-authoritative survival match that remote viewers
influence by spending currency on hostiles and buffs and by betting on the
outcome.

Available commands:
  host      Run the match, the viewer socket and the control API
  viewer    Join a host from the terminal
  items     Print the item catalog
  topics    List the bus topics`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
