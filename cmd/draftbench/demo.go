package main

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/draftbench/draftbench"
	"github.com/draftbench/draftbench/internal/cli"
	"github.com/draftbench/draftbench/pkg/adapters/memory"
	"github.com/draftbench/draftbench/pkg/command"
	"github.com/draftbench/draftbench/pkg/domain"
)

// demoCmd runs a scripted editing session so the engine can be exercised
// end to end without a host application.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted editing session against the configured store",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if err := runDemo(cfg); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cfg cli.Config) error {
	logger := cli.NewLogger(cfg.Logging)
	doc := memory.NewDocument()

	ed, teardown, err := cli.NewEditor(doc, cfg, logger)
	if err != nil {
		return err
	}
	defer teardown()

	result := ed.Load(context.Background())
	fmt.Printf("loaded history: source=%s undo=%d redo=%d\n",
		result.Source, len(result.Snapshot.UndoStack), len(result.Snapshot.RedoStack))

	line := domain.Entity{
		ID: "line-1", Kind: domain.KindLine, Layer: "walls", Visible: true,
		Geometry: domain.Geometry{
			Start: domain.Point{X: 0, Y: 0},
			End:   domain.Point{X: 100, Y: 0},
		},
	}
	circle := domain.Entity{
		ID: "circle-1", Kind: domain.KindCircle, Layer: "fixtures", Visible: true,
		Geometry: domain.Geometry{Center: domain.Point{X: 50, Y: 20}, Radius: 5},
	}

	steps := []command.Command{
		command.NewCreate(doc, line),
		command.NewCreate(doc, circle),
		// An interactive drag: the three moves land inside the merge window
		// and collapse into one undo step.
		command.NewMove(doc, "circle-1", 2, 0, true),
		command.NewMove(doc, "circle-1", 3, 0, true),
		command.NewMove(doc, "circle-1", 0, 4, true),
		command.NewRotate(doc, "line-1", domain.Point{X: 0, Y: 0}, math.Pi/2, false),
	}
	for _, step := range steps {
		if err := ed.Execute(step); err != nil {
			return fmt.Errorf("step %q failed: %w", step.Name(), err)
		}
	}

	printState(ed)

	top := describeTop(ed)
	if _, err := ed.Undo(); err != nil {
		return err
	}
	fmt.Println("undid:", top)
	if _, err := ed.Redo(); err != nil {
		return err
	}

	printState(ed)

	stats := ed.Audit().Stats()
	fmt.Printf("audit: %d entries, %d executes, %d undos, %d redos\n",
		stats.Total, stats.ByAction["execute"], stats.ByAction["undo"], stats.ByAction["redo"])

	ed.Flush()
	return nil
}

func printState(ed *draftbench.Editor) {
	h := ed.History()
	fmt.Printf("history: undo=%d redo=%d canUndo=%t canRedo=%t\n",
		h.UndoSize(), h.RedoSize(), h.CanUndo(), h.CanRedo())
}

func describeTop(ed *draftbench.Editor) string {
	if cmd, ok := ed.History().PeekUndo(); ok {
		return cmd.Name()
	}
	return "(empty)"
}
