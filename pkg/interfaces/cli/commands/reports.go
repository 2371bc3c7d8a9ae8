package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

func newReportsCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List the report catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := st.cfg.Catalog()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-15s %-6s %-32s %s\n", "Report", "Sink", "Destination", "Description")
			fmt.Fprintf(w, "%-15s %-6s %-32s %s\n", "---------------", "------", "--------------------------------", "-----------")
			for _, def := range catalog.Definitions() {
				destination := def.Table
				sink := "table"
				if def.Sink == entities.SinkJSONFile {
					destination = def.FilePath
					sink = "json"
				}
				fmt.Fprintf(w, "%-15s %-6s %-32s %s\n", def.Key, sink, destination, def.Description)
			}
			return nil
		},
	}
}
