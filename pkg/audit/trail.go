// Package audit keeps an append-only, size-bounded log of history events
// for compliance and debugging. Entries are never mutated after logging;
// the trail only evicts the oldest when full and prunes by age on request.
package audit

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draftbench/draftbench/internal/logging"
)

// Action is the history transition an entry records.
type Action string

const (
	ActionExecute Action = "execute"
	ActionUndo    Action = "undo"
	ActionRedo    Action = "redo"
)

// Entry is an immutable record of one history event.
type Entry struct {
	ID                string   `json:"id"`
	CommandID         string   `json:"commandId"`
	Kind              string   `json:"kind"`
	Description       string   `json:"description"`
	Timestamp         int64    `json:"timestamp"`
	Action            Action   `json:"action"`
	AffectedEntityIDs []string `json:"affectedEntityIds"`
	SessionID         string   `json:"sessionId"`
	Success           bool     `json:"success"`
	Error             string   `json:"error,omitempty"`
}

// Filter selects entries. Zero-valued fields match everything.
type Filter struct {
	Kind   string
	Action Action

	// From/To bound the entry timestamp (inclusive), in unix milliseconds.
	From int64
	To   int64

	// EntityID matches entries whose affected set contains the ID.
	EntityID string

	// Limit keeps only the last N matching entries, preserving order.
	Limit int
}

// Stats aggregates the trail by action and command kind.
type Stats struct {
	Total    int            `json:"total"`
	ByAction map[Action]int `json:"byAction"`
	ByKind   map[string]int `json:"byKind"`
}

// DefaultMaxEntries bounds the trail when no override is given.
const DefaultMaxEntries = 1000

// Trail is a ring-bounded audit log. Safe for concurrent use.
type Trail struct {
	sessionID  string
	maxEntries int
	logger     *slog.Logger

	mu      sync.Mutex
	entries []Entry
}

// Option configures a Trail.
type Option func(*Trail)

// WithMaxEntries bounds the trail; the oldest entries are evicted first.
func WithMaxEntries(n int) Option {
	return func(t *Trail) { t.maxEntries = n }
}

// WithLogger routes trail activity to a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Trail) { t.logger = logger }
}

// New creates an empty trail stamped with the owning session's ID.
func New(sessionID string, opts ...Option) *Trail {
	t := &Trail{
		sessionID:  sessionID,
		maxEntries: DefaultMaxEntries,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Log appends an entry, filling in ID, timestamp, and session ID. The
// completed entry is returned. When full, the oldest entry is evicted.
func (t *Trail) Log(e Entry) Entry {
	e.ID = uuid.NewString()
	e.SessionID = t.sessionID
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, e)
	if t.maxEntries > 0 && len(t.entries) > t.maxEntries {
		overflow := len(t.entries) - t.maxEntries
		t.entries = append(t.entries[:0:0], t.entries[overflow:]...)
	}

	t.logger.Debug("audit entry recorded",
		"action", e.Action, "command", e.Kind, "success", e.Success)
	return e
}

// Count returns the number of retained entries.
func (t *Trail) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Entries returns matching entries in log order. The limit applies last:
// it keeps the most recent N of the matching set, not the first N.
func (t *Trail) Entries(f Filter) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	matched := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		if f.matches(e) {
			matched = append(matched, e)
		}
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[len(matched)-f.Limit:]
	}
	return matched
}

// Prune drops entries strictly older than the cutoff, returning how many
// were removed.
func (t *Trail) Prune(olderThan time.Time) int {
	cutoff := olderThan.UnixMilli()

	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.entries[:0:0]
	for _, e := range t.entries {
		if e.Timestamp >= cutoff {
			kept = append(kept, e)
		}
	}
	removed := len(t.entries) - len(kept)
	t.entries = kept

	if removed > 0 {
		t.logger.Info("audit trail pruned", "removed", removed, "cutoff", olderThan)
	}
	return removed
}

// Stats aggregates retained entries by action and kind.
func (t *Trail) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Stats{
		Total:    len(t.entries),
		ByAction: make(map[Action]int),
		ByKind:   make(map[string]int),
	}
	for _, e := range t.entries {
		s.ByAction[e.Action]++
		s.ByKind[e.Kind]++
	}
	return s
}

func (f Filter) matches(e Entry) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.From != 0 && e.Timestamp < f.From {
		return false
	}
	if f.To != 0 && e.Timestamp > f.To {
		return false
	}
	if f.EntityID != "" {
		found := false
		for _, id := range e.AffectedEntityIDs {
			if id == f.EntityID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
