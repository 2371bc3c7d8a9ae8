package commands

import (
	"github.com/spf13/cobra"

	"github.com/vsinha/oilanalysis/pkg/interfaces/cli/output"
)

func newRefreshCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload the consumption table from the source view",
		Long: `Clears the report tables and the consumption table, copies the source
view in chunks and deletes orders that only carry reversal movements.
The deleted rows are appended to the audit file first. Every step runs in
one transaction. Requires --source database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), st.cfg, st.logger, st.opts.verbose)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.orchestrator.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			return output.GenerateRefresh(result, st.outputConfig(cmd))
		},
	}
}
