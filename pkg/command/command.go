package command

import (
	"time"

	"github.com/google/uuid"

	"github.com/draftbench/draftbench/pkg/domain"
)

// Command kinds. These are wire constants: persisted history references them
// through the registry.
const (
	KindCreate       = "entity.create"
	KindDelete       = "entity.delete"
	KindMove         = "entity.move"
	KindRotate       = "entity.rotate"
	KindJoin         = "entity.join"
	KindMoveVertex   = "vertex.move"
	KindInsertVertex = "vertex.insert"
	KindRemoveVertex = "vertex.remove"
	KindCompound     = "compound"
)

// Command is a self-contained, reversible unit of work. Undo must be a true
// inverse of Execute/Redo with respect to the document, provided no other
// mutation interleaves.
type Command interface {
	ID() string
	Kind() string

	// Name is the human-readable description shown in menus and audit
	// entries ("Move entity", "Delete line").
	Name() string

	CreatedAt() time.Time

	Execute() error
	Undo() error
	Redo() error

	// AffectedEntities lists the entity IDs this command touches.
	AffectedEntities() []string

	// Serialize produces the flat storage form. The registry's factory
	// for Kind() must reconstruct an equivalent command from it.
	Serialize() domain.SerializedCommand
}

// Merger is the explicit merge capability. A command that supports merging
// with a follow-up interactive command implements it; the history never
// probes for anything else.
//
// MergeWith is called while the receiver's effect is already applied and
// undone by the history; the returned command's Execute must bring the
// document to the combined post-state and its Undo must reverse both
// originals in one step.
type Merger interface {
	CanMergeWith(next Command) bool
	MergeWith(next Command) (Command, error)
}

// Validator is the explicit precondition capability. When implemented,
// Validate runs before Execute; a non-nil result refuses execution with the
// document untouched.
type Validator interface {
	Validate() error
}

// meta carries the identity fields shared by every command.
type meta struct {
	id        string
	kind      string
	name      string
	createdAt time.Time
}

func newMeta(kind, name string) meta {
	return meta{
		id:        uuid.NewString(),
		kind:      kind,
		name:      name,
		createdAt: time.Now(),
	}
}

func (m *meta) ID() string           { return m.id }
func (m *meta) Kind() string         { return m.kind }
func (m *meta) Name() string         { return m.name }
func (m *meta) CreatedAt() time.Time { return m.createdAt }

func (m *meta) serialized(data map[string]any) domain.SerializedCommand {
	return domain.SerializedCommand{
		Type:      m.kind,
		ID:        m.id,
		Name:      m.name,
		Timestamp: m.createdAt.UnixMilli(),
		Data:      data,
		Version:   1,
	}
}

// restoreMeta rebuilds identity from a serialized record.
func restoreMeta(sc domain.SerializedCommand) meta {
	return meta{
		id:        sc.ID,
		kind:      sc.Type,
		name:      sc.Name,
		createdAt: time.UnixMilli(sc.Timestamp),
	}
}

// Option tweaks a command at construction time.
type Option func(*meta)

// WithID pins the command ID (used by tests and deserialization).
func WithID(id string) Option {
	return func(m *meta) { m.id = id }
}

// WithCreatedAt pins the creation timestamp. The history's merge window
// compares these, so tests inject a controlled clock here.
func WithCreatedAt(t time.Time) Option {
	return func(m *meta) { m.createdAt = t }
}

func (m *meta) apply(opts []Option) {
	for _, opt := range opts {
		opt(m)
	}
}
