package domain

// SerializedCommand is the flat, versioned, storage-ready form of a command.
// The layout is a wire contract: persisted history written by one build must
// load in another.
type SerializedCommand struct {
	Type      string         `json:"type" validate:"required"`
	ID        string         `json:"id" validate:"required"`
	Name      string         `json:"name"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data"`
	Version   int            `json:"version" validate:"gte=1"`
}

// SnapshotVersion is the current schema version of persisted history.
const SnapshotVersion = 3

// HistorySnapshot is the persisted form of a command history: both stacks,
// most-recent last, capped to the configured persistence limit.
type HistorySnapshot struct {
	UndoStack []SerializedCommand `json:"undoStack"`
	RedoStack []SerializedCommand `json:"redoStack"`
	Timestamp int64               `json:"timestamp" validate:"gte=0"`
	Version   int                 `json:"version" validate:"gte=1"`
}

// NewHistorySnapshot returns an empty snapshot at the current schema version.
func NewHistorySnapshot(now int64) HistorySnapshot {
	return HistorySnapshot{
		UndoStack: []SerializedCommand{},
		RedoStack: []SerializedCommand{},
		Timestamp: now,
		Version:   SnapshotVersion,
	}
}
