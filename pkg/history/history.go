/*
Package history owns the undo and redo stacks of an editing session and the
merge policy for high-frequency interactive edits.

All methods are synchronous and run to completion on the caller's goroutine;
the engine's concurrency model guarantees no two calls interleave. One
History instance must own its document exclusively.
*/
package history

import (
	"log/slog"
	"time"

	"github.com/draftbench/draftbench/internal/logging"
	"github.com/draftbench/draftbench/pkg/command"
	"github.com/draftbench/draftbench/pkg/domain"
)

const (
	// DefaultMaxSize bounds the undo stack. The redo stack is never
	// trimmed by this limit.
	DefaultMaxSize = 100

	// DefaultMergeWindow is the interval within which two interactive
	// commands on the same target collapse into one undo step.
	DefaultMergeWindow = time.Second
)

// Metrics receives one call per history operation. The observability package
// provides a prometheus-backed implementation; the zero value of History
// counts nothing.
type Metrics interface {
	Record(op string)
}

// Operation labels passed to Metrics.Record.
const (
	OpExecute  = "execute"
	OpUndo     = "undo"
	OpRedo     = "redo"
	OpMerge    = "merge"
	OpEviction = "eviction"
	OpClear    = "clear"
)

// History holds the two LIFO stacks. Executing a new command always clears
// the redo stack; the undo stack never exceeds maxSize (oldest evicted
// first).
type History struct {
	undo []command.Command
	redo []command.Command

	maxSize     int
	mergeWindow time.Duration

	logger  *slog.Logger
	metrics Metrics

	subscribers map[int]func(domain.HistoryEvent)
	nextSubID   int
}

// Option configures a History.
type Option func(*History)

// WithMaxSize bounds the undo stack.
func WithMaxSize(n int) Option {
	return func(h *History) { h.maxSize = n }
}

// WithMergeWindow sets the merge interval. Zero disables merging entirely.
func WithMergeWindow(d time.Duration) Option {
	return func(h *History) { h.mergeWindow = d }
}

// WithLogger routes merge fallbacks and anomalies to a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *History) { h.logger = logger }
}

// WithMetrics counts operations.
func WithMetrics(m Metrics) Option {
	return func(h *History) { h.metrics = m }
}

// New creates an empty history.
func New(opts ...Option) *History {
	h := &History{
		maxSize:     DefaultMaxSize,
		mergeWindow: DefaultMergeWindow,
		logger:      logging.NewNop(),
		subscribers: make(map[int]func(domain.HistoryEvent)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute runs the command and pushes it onto the undo stack. When the
// current top is merge-compatible (both expose the merge capability, same
// logical target, within the merge window), the top is undone and replaced
// by a single merged command whose execution brings the document to the
// combined post-state. Command errors propagate to the caller unmodified;
// on failure the stacks are unchanged.
func (h *History) Execute(cmd command.Command) error {
	if merged, handled, err := h.tryMerge(cmd); handled {
		if err != nil {
			return err
		}
		h.undo[len(h.undo)-1] = merged
		h.redo = h.redo[:0]
		h.record(OpExecute)
		h.record(OpMerge)
		h.notify(domain.EventExecute)
		return nil
	}

	if err := cmd.Execute(); err != nil {
		return err
	}

	h.undo = append(h.undo, cmd)
	h.redo = h.redo[:0]
	h.trim()
	h.record(OpExecute)
	h.notify(domain.EventExecute)
	return nil
}

// tryMerge attempts to collapse cmd into the undo-stack top. handled=false
// means the caller should run the plain execute path.
func (h *History) tryMerge(cmd command.Command) (merged command.Command, handled bool, err error) {
	if h.mergeWindow <= 0 || len(h.undo) == 0 {
		return nil, false, nil
	}

	top := h.undo[len(h.undo)-1]
	merger, ok := top.(command.Merger)
	if !ok || !merger.CanMergeWith(cmd) {
		return nil, false, nil
	}

	age := cmd.CreatedAt().Sub(top.CreatedAt())
	if age < 0 || age >= h.mergeWindow {
		return nil, false, nil
	}

	// Undo the top so the merged command can re-derive the combined state
	// from scratch.
	if undoErr := top.Undo(); undoErr != nil {
		h.logger.Warn("merge aborted: could not undo current top",
			"command", top.ID(), "err", undoErr)
		return nil, false, nil
	}

	merged, mergeErr := merger.MergeWith(cmd)
	if mergeErr == nil {
		if execErr := merged.Execute(); execErr == nil {
			return merged, true, nil
		} else {
			// Put the top's effect back before reporting failure.
			if redoErr := top.Redo(); redoErr != nil {
				h.logger.Error("failed to restore top after merge execution failure",
					"command", top.ID(), "err", redoErr)
			}
			return nil, true, execErr
		}
	}

	h.logger.Warn("merge rejected by command pair, executing separately",
		"top", top.ID(), "next", cmd.ID(), "err", mergeErr)
	if redoErr := top.Redo(); redoErr != nil {
		h.logger.Error("failed to restore top after rejected merge",
			"command", top.ID(), "err", redoErr)
	}
	return nil, false, nil
}

// Undo reverses the most recent command. An empty stack is a no-op returning
// false, with no subscriber notification. A command error propagates and
// leaves the stacks unchanged.
func (h *History) Undo() (bool, error) {
	if len(h.undo) == 0 {
		return false, nil
	}

	top := h.undo[len(h.undo)-1]
	if err := top.Undo(); err != nil {
		return false, err
	}

	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, top)
	h.record(OpUndo)
	h.notify(domain.EventUndo)
	return true, nil
}

// Redo re-applies the most recently undone command. Symmetric to Undo.
func (h *History) Redo() (bool, error) {
	if len(h.redo) == 0 {
		return false, nil
	}

	top := h.redo[len(h.redo)-1]
	if err := top.Redo(); err != nil {
		return false, err
	}

	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, top)
	h.record(OpRedo)
	h.notify(domain.EventRedo)
	return true, nil
}

// Clear empties both stacks.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
	h.record(OpClear)
	h.notify(domain.EventClear)
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

func (h *History) UndoSize() int { return len(h.undo) }
func (h *History) RedoSize() int { return len(h.redo) }

// PeekUndo returns the top of the undo stack without popping it.
func (h *History) PeekUndo() (command.Command, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	return h.undo[len(h.undo)-1], true
}

// PeekRedo returns the top of the redo stack without popping it.
func (h *History) PeekRedo() (command.Command, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	return h.redo[len(h.redo)-1], true
}

// Subscribe registers a listener for history events. The returned function
// unsubscribes. Listeners run synchronously on the mutating call.
func (h *History) Subscribe(fn func(domain.HistoryEvent)) func() {
	id := h.nextSubID
	h.nextSubID++
	h.subscribers[id] = fn
	return func() { delete(h.subscribers, id) }
}

// Serialize flattens both stacks, most-recent last.
func (h *History) Serialize() domain.HistorySnapshot {
	snap := domain.NewHistorySnapshot(time.Now().UnixMilli())
	for _, cmd := range h.undo {
		snap.UndoStack = append(snap.UndoStack, cmd.Serialize())
	}
	for _, cmd := range h.redo {
		snap.RedoStack = append(snap.RedoStack, cmd.Serialize())
	}
	return snap
}

// Restore rebuilds the stacks from a snapshot without executing anything:
// persisted commands were already applied (undo stack) or already undone
// (redo stack) when they were saved. Commands whose kind the deserializer
// does not understand are skipped; partial restoration beats total failure.
func (h *History) Restore(snap domain.HistorySnapshot, deserialize func(domain.SerializedCommand) command.Command) {
	h.undo = nil
	h.redo = nil
	for _, sc := range snap.UndoStack {
		if cmd := deserialize(sc); cmd != nil {
			h.undo = append(h.undo, cmd)
		}
	}
	for _, sc := range snap.RedoStack {
		if cmd := deserialize(sc); cmd != nil {
			h.redo = append(h.redo, cmd)
		}
	}
	h.trim()
	h.notify(domain.EventClear)
}

func (h *History) trim() {
	if h.maxSize <= 0 {
		return
	}
	for len(h.undo) > h.maxSize {
		h.undo = h.undo[1:]
		h.record(OpEviction)
	}
}

func (h *History) notify(t domain.EventType) {
	ev := domain.HistoryEvent{
		Type:     t,
		CanUndo:  h.CanUndo(),
		CanRedo:  h.CanRedo(),
		UndoSize: len(h.undo),
		RedoSize: len(h.redo),
	}
	for _, fn := range h.subscribers {
		fn(ev)
	}
}

func (h *History) record(op string) {
	if h.metrics != nil {
		h.metrics.Record(op)
	}
}
