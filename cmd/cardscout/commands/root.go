package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/codyseavey/cardscout/internal/config"
	"github.com/codyseavey/cardscout/internal/services"
)

// Builder creates the analysis service a command runs against. The cleanup
// it returns is never nil.
type Builder func() (*services.AnalysisService, func(), error)

// defaultBuilder loads configuration the same way the server does.
func defaultBuilder() (*services.AnalysisService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, func() {}, err
	}
	return services.Bootstrap(cfg)
}

// NewRootCmd assembles the CLI. Commands build the analysis service lazily
// so "manual" and "--help" work without any configuration.
func NewRootCmd(build Builder) *cobra.Command {
	root := &cobra.Command{
		Use:           "cardscout",
		Short:         "cardscout searches the card marketplace and summarizes listing prices.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	withAnalysis := func(run analysisRun) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			analysis, cleanup, err := build()
			defer cleanup()
			if err != nil {
				return err
			}
			return run(cmd, args, analysis)
		}
	}

	root.AddCommand(
		newSearchCmd(withAnalysis),
		newPricesCmd(withAnalysis),
		newRelatedCmd(withAnalysis),
		newDetailCmd(withAnalysis),
		newManualCmd(),
	)
	return root
}

type analysisRun func(cmd *cobra.Command, args []string, analysis *services.AnalysisService) error

// withAnalysisFunc adapts an analysisRun to cobra's RunE.
type withAnalysisFunc func(run analysisRun) func(*cobra.Command, []string) error

func Execute() {
	if err := NewRootCmd(defaultBuilder).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}
