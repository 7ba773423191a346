package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tower/internal/cli"
)

var runsCmd = &cobra.Command{
	Use:   "runs [id]",
	Short: "List stored results, or show one",
	Long: `Without an ID, lists the stored run IDs. With one, prints that result.
Only the file and redis stores outlive the process.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		remove, _ := cmd.Flags().GetBool("delete")

		eng, closer, err := openEngine()
		if err != nil {
			return err
		}
		defer closer()
		ctx := cmd.Context()

		if len(args) == 0 {
			ids, err := eng.Runs(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		}

		if remove {
			if err := eng.DeleteRun(ctx, args[0]); err != nil {
				return err
			}
			cli.NewTerminal(os.Stdout, settings.Theme).Printf("Deleted %s\n", args[0])
			return nil
		}
		res, err := eng.Run(ctx, args[0])
		if err != nil {
			return err
		}
		return printResult(res, format)
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().StringP("format", "f", "text", "Output: text, markdown or json")
	runsCmd.Flags().Bool("delete", false, "Delete the run instead of showing it")
}
