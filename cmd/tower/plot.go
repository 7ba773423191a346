package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tower/pkg/domain"
	"github.com/aretw0/tower/pkg/report"
)

var plotCmd = &cobra.Command{
	Use:   "plot <name|file|run-id>",
	Short: "Plot the stage profile of a column",
	Long: `Writes the temperature or flow profile to an image. The format follows the
extension of --out (png, svg, pdf...). A stored run ID is plotted without solving.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		kind, _ := cmd.Flags().GetString("kind")
		solver, _ := cmd.Flags().GetString("solver")

		plot := report.PlotProfile
		switch kind {
		case "temperature":
		case "flows":
			plot = report.PlotFlows
		default:
			return fmt.Errorf("unknown profile %q (want temperature or flows)", kind)
		}

		eng, closer, err := openEngine()
		if err != nil {
			return err
		}
		defer closer()

		res, err := eng.Run(cmd.Context(), args[0])
		if err != nil && !errors.Is(err, domain.ErrRunNotFound) {
			return err
		}
		if res == nil {
			col, lerr := loadColumn(eng, args[0])
			if lerr != nil {
				return lerr
			}
			var k domain.SolverType
			if k, err = solverFor(col, solver); err != nil {
				return err
			}
			if res, err = eng.Solve(cmd.Context(), col, k); err != nil {
				return err
			}
		}

		format := strings.TrimPrefix(filepath.Ext(out), ".")
		if err := writeFile(out, func(f *os.File) error { return plot(res, f, format) }); err != nil {
			return err
		}
		fmt.Printf("Wrote %s profile of %s to %s\n", kind, res.Column, out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)
	plotCmd.Flags().StringP("out", "o", "profile.png", "Output image")
	plotCmd.Flags().String("kind", "temperature", "Profile: temperature or flows")
	plotCmd.Flags().StringP("solver", "s", "", "Strategy when the column has to be solved")
}
