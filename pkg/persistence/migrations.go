package persistence

import (
	"fmt"

	"github.com/draftbench/draftbench/pkg/domain"
)

// MigrationFunc lifts a raw persisted record from one schema version to the
// next. Each step bumps exactly one version; the chain runs sequentially.
type MigrationFunc func(record map[string]any) (map[string]any, error)

// Migrations maps a source version to the step that upgrades it by one.
type Migrations map[int]MigrationFunc

// Apply runs the chain from `from` up to `to`. A missing step is a
// domain.MigrationGapError: the record cannot be upgraded safely.
func (m Migrations) Apply(record map[string]any, from, to int) (map[string]any, error) {
	for v := from; v < to; v++ {
		step, ok := m[v]
		if !ok {
			return nil, &domain.MigrationGapError{From: v, To: v + 1}
		}
		next, err := step(record)
		if err != nil {
			return nil, fmt.Errorf("migration v%d -> v%d: %w", v, v+1, err)
		}
		next["version"] = v + 1
		record = next
	}
	return record, nil
}

// DefaultMigrations is the production chain.
//
// v1 stored a single flat "commands" list with no redo stack; v2 split the
// record into undoStack/redoStack. v2 still discriminated commands with a
// "kind" field; v3 renamed it to "type".
func DefaultMigrations() Migrations {
	return Migrations{
		1: migrateV1SplitStacks,
		2: migrateV2RenameKind,
	}
}

func migrateV1SplitStacks(record map[string]any) (map[string]any, error) {
	commands, _ := record["commands"].([]any)
	delete(record, "commands")
	record["undoStack"] = commands
	if record["undoStack"] == nil {
		record["undoStack"] = []any{}
	}
	record["redoStack"] = []any{}
	return record, nil
}

func migrateV2RenameKind(record map[string]any) (map[string]any, error) {
	for _, stackKey := range []string{"undoStack", "redoStack"} {
		stack, _ := record[stackKey].([]any)
		for _, raw := range stack {
			cmd, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if kind, has := cmd["kind"]; has {
				cmd["type"] = kind
				delete(cmd, "kind")
			}
			// Command payload versions predate the snapshot schema;
			// normalize absent ones.
			if _, has := cmd["version"]; !has {
				cmd["version"] = 1
			}
		}
	}
	return record, nil
}
