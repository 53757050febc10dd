package domain

// EventType categorizes a history transition.
type EventType string

const (
	EventExecute EventType = "execute"
	EventUndo    EventType = "undo"
	EventRedo    EventType = "redo"
	EventClear   EventType = "clear"
)

// HistoryEvent is delivered to history subscribers after each transition.
type HistoryEvent struct {
	Type     EventType `json:"type"`
	CanUndo  bool      `json:"can_undo"`
	CanRedo  bool      `json:"can_redo"`
	UndoSize int       `json:"undo_size"`
	RedoSize int       `json:"redo_size"`
}

// SyncMessage is broadcast over a sync channel after a successful save so
// sibling sessions (other tabs, other processes) can follow along.
type SyncMessage struct {
	// Origin identifies the sending session. Receivers drop their own
	// messages.
	Origin string `json:"origin"`

	// Version is a monotonic counter per origin store key. Receivers drop
	// messages with a version at or below the last one seen
	// (last-writer-wins, no stronger ordering guarantee).
	Version uint64 `json:"version"`

	Diff *SnapshotDiff `json:"diff,omitempty"`

	Timestamp int64 `json:"timestamp"`
}
