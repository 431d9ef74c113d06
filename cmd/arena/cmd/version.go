package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var version = "0.1.0" // -ldflags "-X github.com/nfrund/chaosarena/cmd/arena/cmd.version=..."

var versionVerbose bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the arena version",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "arena v%s\n", version)
		if !versionVerbose {
			return
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		fmt.Fprintf(out, "go: %s\n", info.GoVersion)
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" || s.Key == "vcs.time" {
				fmt.Fprintf(out, "%s: %s\n", s.Key, s.Value)
			}
		}
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "also print toolchain and vcs details")
	rootCmd.AddCommand(versionCmd)
}
