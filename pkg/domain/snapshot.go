package domain

import "reflect"

// SnapshotDiff describes the change between two persisted history snapshots.
// It is designed to be serialized to JSON and broadcast to sibling sessions,
// which merge it into their view instead of re-reading the whole record.
type SnapshotDiff struct {
	// UndoAppended holds commands newly pushed onto the undo stack.
	UndoAppended []SerializedCommand `json:"undo_appended,omitempty"`

	// UndoRemoved counts entries dropped from the front (eviction) or the
	// back (undo) of the undo stack.
	UndoRemoved int `json:"undo_removed,omitempty"`

	// RedoReplaced carries the full redo stack when it changed. The redo
	// stack is small and rewritten wholesale on execute, so a delta
	// encoding buys nothing.
	RedoReplaced []SerializedCommand `json:"redo_replaced,omitempty"`
	RedoChanged  bool                `json:"redo_changed,omitempty"`

	Timestamp int64 `json:"timestamp"`
}

// DiffSnapshots computes the change from old to new. A nil old snapshot
// yields a diff representing the entire new snapshot (initial load). Returns
// nil when nothing changed.
func DiffSnapshots(old *HistorySnapshot, new *HistorySnapshot) *SnapshotDiff {
	if new == nil {
		return nil
	}

	diff := &SnapshotDiff{Timestamp: new.Timestamp}

	if old == nil {
		diff.UndoAppended = new.UndoStack
		diff.RedoReplaced = new.RedoStack
		diff.RedoChanged = len(new.RedoStack) > 0
		return diff
	}

	diff.UndoAppended, diff.UndoRemoved = diffStack(old.UndoStack, new.UndoStack)

	if !stacksEqual(old.RedoStack, new.RedoStack) {
		diff.RedoReplaced = new.RedoStack
		diff.RedoChanged = true
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty reports whether the diff carries any actionable change.
func (d *SnapshotDiff) IsEmpty() bool {
	return len(d.UndoAppended) == 0 && d.UndoRemoved == 0 && !d.RedoChanged
}

// diffStack finds the longest shared run of command IDs anchored anywhere in
// old, then expresses new as "removed N, appended M". Works for the three
// real transitions: push (append), undo (pop), and eviction (drop oldest).
func diffStack(old, new []SerializedCommand) (appended []SerializedCommand, removed int) {
	shared := 0
	offset := 0
	for off := 0; off < len(old); off++ {
		n := 0
		for n < len(new) && off+n < len(old) && old[off+n].ID == new[n].ID {
			n++
		}
		if n > shared {
			shared = n
			offset = off
		}
	}

	if shared == 0 {
		return new, len(old)
	}
	return new[shared:], offset + (len(old) - offset - shared)
}

// EqualStacks compares two snapshots by their command stacks, ignoring the
// save timestamp. The autosaver uses this to skip redundant writes under
// oscillating UI updates.
func (s HistorySnapshot) EqualStacks(other HistorySnapshot) bool {
	return stacksEqual(s.UndoStack, other.UndoStack) &&
		stacksEqual(s.RedoStack, other.RedoStack)
}

func stacksEqual(a, b []SerializedCommand) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
		if !reflect.DeepEqual(a[i].Data, b[i].Data) {
			return false
		}
	}
	return true
}
