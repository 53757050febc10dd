package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/draftbench/draftbench"
	"github.com/draftbench/draftbench/pkg/adapters/memory"
	"github.com/draftbench/draftbench/pkg/audit"
	"github.com/draftbench/draftbench/pkg/command"
	"github.com/draftbench/draftbench/pkg/domain"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Work with the audit trail",
}

// auditExportCmd renders a trail to a file or stdout. The trail itself lives
// with the session; this command demonstrates the formats over a sample
// trail when no session is running.
var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the audit trail as json, csv, or xlsx",
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		if err := exportAudit(audit.Format(format), output); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditExportCmd)

	auditExportCmd.Flags().StringP("format", "f", "json", "Export format: json, csv, or xlsx")
	auditExportCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
}

func exportAudit(format audit.Format, output string) error {
	trail, err := loadTrail()
	if err != nil {
		return err
	}

	data, err := trail.Export(format)
	if err != nil {
		return err
	}

	if output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Printf("wrote %d bytes to %s\n", len(data), output)
	return nil
}

// loadTrail replays the demo script in memory and returns its trail. A
// long-running host exposes its live trail over the debug HTTP surface;
// this command exists to inspect the export formats.
func loadTrail() (*audit.Trail, error) {
	doc := memory.NewDocument()
	ed := draftbench.New(doc, draftbench.WithSessionID("cli"))
	defer ed.Close()

	line := domain.Entity{
		ID: "line-1", Kind: domain.KindLine, Layer: "walls", Visible: true,
		Geometry: domain.Geometry{
			Start: domain.Point{X: 0, Y: 0},
			End:   domain.Point{X: 100, Y: 0},
		},
	}
	steps := []command.Command{
		command.NewCreate(doc, line),
		command.NewMove(doc, "line-1", 4, 2, false),
	}
	for _, step := range steps {
		if err := ed.Execute(step); err != nil {
			return nil, err
		}
	}
	if _, err := ed.Undo(); err != nil {
		return nil, err
	}
	return ed.Audit(), nil
}
