package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var itemsCatalog string

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Print the item catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(itemsCatalog)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCOST\tCATEGORY\tEFFECT")
		for _, it := range cat.Items() {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", it.ID, it.Name, it.Cost, it.Category, it.Effect)
		}
		return w.Flush()
	},
}

func init() {
	itemsCmd.Flags().StringVar(&itemsCatalog, "catalog", "", "JSON catalog file (default built-in)")
	rootCmd.AddCommand(itemsCmd)
}
