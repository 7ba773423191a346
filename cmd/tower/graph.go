package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tower/pkg/report"
)

var graphCmd = &cobra.Command{
	Use:   "graph <name|file>",
	Short: "Print the column layout as a Mermaid flowchart",
	Long: `Prints the stages, feeds and products of a column as Mermaid flowchart syntax.
With --solve, each stage is annotated with its solved temperature.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		solve, _ := cmd.Flags().GetBool("solve")

		eng, closer, err := openEngine()
		if err != nil {
			return err
		}
		defer closer()

		col, err := loadColumn(eng, args[0])
		if err != nil {
			return err
		}
		if !solve {
			fmt.Print(report.Topology(col, nil))
			return nil
		}

		kind, err := solverFor(col, "")
		if err != nil {
			return err
		}
		res, err := eng.Solve(cmd.Context(), col, kind)
		if err != nil {
			return err
		}
		fmt.Print(report.Topology(col, res))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("solve", false, "Solve first and annotate stage temperatures")
}
