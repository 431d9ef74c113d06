package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nfrund/chaosarena/internal/topicmgr"
	// Registers the arena topics with topicmgr.Default.
	_ "github.com/nfrund/chaosarena/internal/topics"
)

var topicsFormat string

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the bus topics",
	Long: `Lists every topic registered on the in-process bus with its payload
fields.

Output formats:
  table - Human-readable table format (default)
  json  - Machine-readable JSON format with metadata`,
	RunE: func(cmd *cobra.Command, args []string) error {
		list := topicmgr.Default().List()
		out := cmd.OutOrStdout()

		switch topicsFormat {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		case "table":
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMODULE\tPAYLOAD\tDESCRIPTION")
			for _, t := range list {
				fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", t.Name, t.Module, t.Metadata["type_name"], t.Description)
			}
			return w.Flush()
		}
		return fmt.Errorf("unknown format %q, use table or json", topicsFormat)
	},
}

func init() {
	topicsCmd.Flags().StringVar(&topicsFormat, "format", "table", "output format: table or json")
	rootCmd.AddCommand(topicsCmd)
}
