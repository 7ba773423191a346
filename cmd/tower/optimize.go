package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tower/internal/cli"
	"github.com/aretw0/tower/pkg/column"
	"github.com/aretw0/tower/pkg/domain"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize <name>",
	Short: "Find the smallest tray count meeting a purity target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		component, _ := cmd.Flags().GetString("component")
		minFraction, _ := cmd.Flags().GetFloat64("min")
		product, _ := cmd.Flags().GetString("product")
		maxTrays, _ := cmd.Flags().GetInt("max-trays")

		eng, closer, err := openEngine()
		if err != nil {
			return err
		}
		defer closer()

		spec := column.PuritySpec{Component: component, MinFraction: minFraction, Product: column.Product(product)}
		trays, res, err := eng.Optimize(args[0], spec, maxTrays)
		if err != nil {
			return err
		}

		term := cli.NewTerminal(os.Stdout, settings.Theme)
		if trays < 0 {
			term.Printf("No column up to %d trays reaches %s ≥ %g in the %s product.\n", maxTrays, component, minFraction, product)
			return nil
		}
		term.Printf("%d trays reach %s = %.5f in the %s product.\n", trays, component, fraction(res, spec), product)
		term.Printf("%s\n", term.Status(res.Diagnostics))
		return nil
	},
}

func fraction(res *domain.Result, spec column.PuritySpec) float64 {
	if spec.Product == column.ProductBottom {
		return res.Bottom.MoleFraction(spec.Component)
	}
	return res.Top.MoleFraction(spec.Component)
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
	optimizeCmd.Flags().String("component", "", "Component to purify")
	optimizeCmd.Flags().Float64("min", 0.95, "Minimum mole fraction")
	optimizeCmd.Flags().String("product", string(column.ProductTop), "Product stream: top or bottom")
	optimizeCmd.Flags().Int("max-trays", 30, "Largest tray count to try")
	_ = optimizeCmd.MarkFlagRequired("component")
}
