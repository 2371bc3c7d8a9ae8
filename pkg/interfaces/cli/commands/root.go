// Package commands builds the oilanalysis command tree
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/oilanalysis/pkg/infrastructure/config"
	"github.com/vsinha/oilanalysis/pkg/infrastructure/logging"
	"github.com/vsinha/oilanalysis/pkg/interfaces/cli/output"
)

// globalOptions are the persistent flags shared by every subcommand
type globalOptions struct {
	configPath string
	source     string
	scenario   string
	format     string
	output     string
	verbose    bool
}

// state is resolved once per invocation before any subcommand runs
type state struct {
	opts   globalOptions
	cfg    *config.Config
	logger *zap.Logger
}

func (s *state) init(cmd *cobra.Command) error {
	cfg, err := config.Load(s.opts.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source = s.opts.source
	}
	if flags.Changed("scenario") {
		cfg.Scenario = s.opts.scenario
	}
	s.cfg = cfg

	if s.logger == nil {
		logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development, s.opts.verbose)
		if err != nil {
			return err
		}
		s.logger = logger
	}
	return nil
}

func (s *state) outputConfig(cmd *cobra.Command) output.Config {
	return output.Config{
		Format:    s.opts.format,
		OutputDir: s.opts.output,
		Verbose:   s.opts.verbose,
		Out:       cmd.OutOrStdout(),
	}
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	return newRootCommand(&state{})
}

func newRootCommand(st *state) *cobra.Command {
	root := &cobra.Command{
		Use:   "oilanalysis",
		Short: "Classify wind turbine oil consumption orders into maintenance reports",
		Long: `oilanalysis reads oil issue and return movements per service order,
aggregates them, enriches them with installed base and capacity data and
writes the orders each report rule admits.

Reports run against the collaborator database, or offline against a
directory of CSV table exports with --source csv.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if st.logger != nil {
				_ = st.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&st.opts.configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&st.opts.source, "source", config.SourceDatabase, "Consumption source: database, csv")
	flags.StringVar(&st.opts.scenario, "scenario", "", "Directory of CSV table exports for --source csv")
	flags.StringVar(&st.opts.format, "format", output.FormatText, "Output format: text, json, csv")
	flags.StringVar(&st.opts.output, "output", "", "Output directory for results (optional)")
	flags.BoolVarP(&st.opts.verbose, "verbose", "v", false, "Enable verbose output and debug logging")

	root.AddCommand(
		newRunCommand(st),
		newRefreshCommand(st),
		newServeCommand(st),
		newReportsCommand(st),
	)
	return root
}

// Execute runs the command tree with args and returns the process exit code
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
