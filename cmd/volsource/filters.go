package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/volsource/internal/source"
)

type filterJSON struct {
	Pattern     string `json:"pattern"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
}

func newFiltersCmd(root *rootFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "filters",
		Short: "List the folder filters offered by the registered decoders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd.Context(), root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()

			filters := source.AvailableFilters(app.Registry.Extensions())
			active, _ := source.SelectFilter(filters, app.Config.Input.Filter)

			rows := make([]filterJSON, 0, len(filters))
			for _, f := range filters {
				rows = append(rows, filterJSON{Pattern: f.Pattern, Description: f.Description, Default: f == active})
			}

			if jsonOutput {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(rows)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PATTERN\tDESCRIPTION\tDEFAULT")
			for _, row := range rows {
				mark := ""
				if row.Default {
					mark = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", row.Pattern, row.Description, mark)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}
