package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/draftbench/draftbench/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "draftbench",
	Short: "Draftbench is a transactional command engine for 2D CAD documents",
	Long: `Draftbench manages the edit history of a CAD document: undoable commands,
merged interactive drags, versioned persistence, and an audit trail.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "draftbench.yaml", "Path to the configuration file")
}

func loadConfig(cmd *cobra.Command) (cli.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return cli.LoadConfig(path)
}
