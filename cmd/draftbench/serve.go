package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/draftbench/draftbench/internal/cli"
	"github.com/draftbench/draftbench/internal/httpdebug"
	"github.com/draftbench/draftbench/pkg/adapters/memory"
)

// serveCmd starts the debug HTTP surface over a session restored from the
// configured store.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the debug HTTP endpoints (history, audit, metrics)",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		addr, _ := cmd.Flags().GetString("addr")
		if err := serve(cfg, addr); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8089", "Listen address for the debug server")
}

func serve(cfg cli.Config, addr string) error {
	logger := cli.NewLogger(cfg.Logging)

	ed, teardown, err := cli.NewEditor(memory.NewDocument(), cfg, logger)
	if err != nil {
		return err
	}
	defer teardown()

	result := ed.Load(context.Background())
	logger.Info("serving debug endpoints",
		"addr", addr,
		"source", result.Source,
		"undo", len(result.Snapshot.UndoStack))

	return http.ListenAndServe(addr, httpdebug.NewHandler(ed))
}
