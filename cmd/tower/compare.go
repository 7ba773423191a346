package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tower/internal/cli"
	"github.com/aretw0/tower/pkg/domain"
	"github.com/aretw0/tower/pkg/report"
)

var compareCmd = &cobra.Command{
	Use:   "compare <name|file>",
	Short: "Solve a column with several strategies side by side",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, _ := cmd.Flags().GetStringSlice("solvers")
		kinds := make([]domain.SolverType, 0, len(names))
		for _, name := range names {
			kind, err := domain.ParseSolverType(name)
			if err != nil {
				return err
			}
			kinds = append(kinds, kind)
		}

		eng, closer, err := openEngine()
		if err != nil {
			return err
		}
		defer closer()

		col, err := loadColumn(eng, args[0])
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		comparisons, err := eng.Compare(ctx, col, kinds...)
		if err != nil {
			return err
		}

		term := cli.NewTerminal(os.Stdout, settings.Theme)
		term.Markdown(report.ComparisonMarkdown(col.Name(), comparisons))
		for _, c := range comparisons {
			term.Printf("%-11s %s\n", c.Solver.String()+":", term.Status(c.Result.Diagnostics))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringSlice("solvers", nil, "Strategies to compare (default: all)")
}
