package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tower"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tower",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tower version %s\n", tower.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
