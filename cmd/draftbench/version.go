package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/draftbench/draftbench"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of draftbench",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("draftbench version %s\n", strings.TrimSpace(draftbench.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
