package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/draftbench/draftbench/internal/cli"
	"github.com/draftbench/draftbench/pkg/domain"
	"github.com/draftbench/draftbench/pkg/persistence"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect persisted command history",
}

// historyShowCmd loads the snapshot from the configured store and prints
// it: a readable table on a TTY, raw JSON when piped.
var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the persisted history snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if err := showHistory(cfg); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
}

func showHistory(cfg cli.Config) error {
	store, cleanup, err := cli.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer cleanup()

	gateway := persistence.New(store, persistence.WithLogger(cli.NewLogger(cfg.Logging)))
	result := gateway.Load(context.Background())

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return printSnapshotTable(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result.Snapshot)
}

func printSnapshotTable(result persistence.LoadResult) error {
	fmt.Printf("source: %s\n", result.Source)
	for _, warning := range result.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}

	fmt.Printf("\nundo stack (%d, oldest first):\n", len(result.Snapshot.UndoStack))
	printStack(result.Snapshot.UndoStack)

	fmt.Printf("\nredo stack (%d):\n", len(result.Snapshot.RedoStack))
	printStack(result.Snapshot.RedoStack)
	return nil
}

func printStack(stack []domain.SerializedCommand) {
	if len(stack) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for _, sc := range stack {
		ts := time.UnixMilli(sc.Timestamp).Format(time.RFC3339)
		fmt.Printf("  %-20s %-28s %s\n", sc.Type, sc.Name, ts)
	}
}
