package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [name|file...]",
	Short: "Check column definitions without solving them",
	Long:  `Builds every named definition (default: all of --dir) and reports the ones that are rejected.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closer, err := openEngine()
		if err != nil {
			return err
		}
		defer closer()

		if len(args) == 0 {
			if args, err = eng.Definitions(); err != nil {
				return err
			}
		}
		if len(args) == 0 {
			return fmt.Errorf("no column definitions in %s", settings.Dir)
		}

		var errs []error
		for _, arg := range args {
			col, err := loadColumn(eng, arg)
			if err != nil {
				fmt.Printf("✗ %s\n", arg)
				errs = append(errs, fmt.Errorf("%s: %w", arg, err))
				continue
			}
			fmt.Printf("✓ %s (%d stages, %d components)\n", arg, col.NumberOfStages(), len(col.Components()))
		}
		if err := errors.Join(errs...); err != nil {
			return fmt.Errorf("validation failed:\n%w", err)
		}
		fmt.Println("All definitions are valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
