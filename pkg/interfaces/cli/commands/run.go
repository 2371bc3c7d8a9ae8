package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/oilanalysis/pkg/application/dto"
	"github.com/vsinha/oilanalysis/pkg/application/services/orchestration"
	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/interfaces/cli/output"
)

func newRunCommand(st *state) *cobra.Command {
	var (
		all    bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "run [report...]",
		Short: "Run one or more reports",
		Long: `Runs each named report through the pipeline and prints a summary.

Examples:
  oilanalysis run gb-oil-change
  oilanalysis run --all --dry-run --format json
  oilanalysis run fc-topup --source csv --scenario ./data`,
		Args: func(cmd *cobra.Command, args []string) error {
			switch {
			case all && len(args) > 0:
				return errors.New("--all cannot be combined with report names")
			case !all && len(args) == 0:
				return errors.New("name at least one report or pass --all")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, st.cfg, st.logger, st.opts.verbose)
			if err != nil {
				return err
			}
			defer a.close()

			opts := orchestration.RunOptions{DryRun: dryRun}
			var results []*dto.RunResult
			var runErr error
			if all {
				results, runErr = a.orchestrator.RunAll(ctx, opts)
			} else {
				for _, name := range args {
					result, err := a.orchestrator.RunReport(ctx, entities.ReportKey(name), opts)
					if result != nil {
						results = append(results, result)
					}
					if err != nil {
						runErr = err
						break
					}
				}
			}

			if len(results) > 0 {
				if err := output.Generate(results, st.outputConfig(cmd)); err != nil {
					if runErr != nil {
						st.logger.Error("failed to write results", zap.Error(err))
						return runErr
					}
					return err
				}
			}
			if runErr != nil {
				return fmt.Errorf("run failed: %w", runErr)
			}
			if a.tables != nil {
				for _, table := range a.orchestrator.Catalog().Tables() {
					st.logger.Debug("in-memory table", zap.String("table", table), zap.Int("rows", len(a.tables.Rows(table))))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Run every report in the catalog")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Classify without writing")
	return cmd
}
