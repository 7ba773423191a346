package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tower/internal/cli"
	"github.com/aretw0/tower/pkg/domain"
	"github.com/aretw0/tower/pkg/report"
)

var solveCmd = &cobra.Command{
	Use:   "solve <name|file>",
	Short: "Solve a column and print the result",
	Long: `Solves a column definition, by name from --dir or from a file path, and prints
a report. Non-convergence is reported, not treated as a failure.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		solver, _ := cmd.Flags().GetString("solver")
		format, _ := cmd.Flags().GetString("format")
		plotPath, _ := cmd.Flags().GetString("plot")
		chartPath, _ := cmd.Flags().GetString("chart")

		eng, closer, err := openEngine()
		if err != nil {
			return err
		}
		defer closer()

		col, err := loadColumn(eng, args[0])
		if err != nil {
			return err
		}
		kind, err := solverFor(col, solver)
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		res, err := eng.Solve(ctx, col, kind)
		if err != nil {
			if sig := ctx.Signal(); sig != nil {
				return fmt.Errorf("interrupted by %v", sig)
			}
			return err
		}

		if plotPath != "" {
			if err := writeFile(plotPath, func(f *os.File) error {
				return report.PlotProfile(res, f, strings.TrimPrefix(filepath.Ext(plotPath), "."))
			}); err != nil {
				return err
			}
		}
		if chartPath != "" {
			if err := writeFile(chartPath, func(f *os.File) error {
				return report.ConvergenceChart(res, f)
			}); err != nil {
				return err
			}
		}
		return printResult(res, format)
	},
}

func printResult(res *domain.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "markdown", "md":
		fmt.Print(report.Markdown(res))
		return nil
	case "", "text":
		term := cli.NewTerminal(os.Stdout, settings.Theme)
		term.Markdown(report.Markdown(res))
		term.Printf("%s\n", term.Status(res.Diagnostics))
		return nil
	}
	return fmt.Errorf("unknown format %q (want text, markdown or json)", format)
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func init() {
	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().StringP("solver", "s", "", "Strategy: direct, damped, broyden or inside-out")
	solveCmd.Flags().StringP("format", "f", "text", "Output: text, markdown or json")
	solveCmd.Flags().String("plot", "", "Write the temperature profile to this .svg/.png/.pdf file")
	solveCmd.Flags().String("chart", "", "Write an interactive convergence chart to this .html file")
}
