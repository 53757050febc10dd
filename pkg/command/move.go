package command

import (
	"fmt"

	"github.com/draftbench/draftbench/pkg/domain"
	"github.com/draftbench/draftbench/pkg/ports"
)

// Move translates an entity by a delta.
//
// Redo philosophy: incremental. Undo applies the inverse delta to current
// state and redo re-applies the delta; there is no geometry snapshot.
//
// Interactive moves (mouse drags) are mergeable: consecutive interactive
// moves of the same entity inside the merge window collapse into one command
// whose delta is the sum, so a whole drag undoes in a single step.
type Move struct {
	meta
	doc         ports.Document
	entityID    string
	dx, dy      float64
	interactive bool
}

type movePayload struct {
	EntityID    string  `json:"entity_id"`
	DX          float64 `json:"dx"`
	DY          float64 `json:"dy"`
	Interactive bool    `json:"interactive"`
}

// NewMove builds a move command. Interactive moves participate in merging.
func NewMove(doc ports.Document, entityID string, dx, dy float64, interactive bool, opts ...Option) *Move {
	m := &Move{
		meta:        newMeta(KindMove, "Move entity"),
		doc:         doc,
		entityID:    entityID,
		dx:          dx,
		dy:          dy,
		interactive: interactive,
	}
	m.meta.apply(opts)
	return m
}

// Validate refuses moving absent or locked entities.
func (m *Move) Validate() error {
	e, ok := m.doc.GetEntity(m.entityID)
	if !ok {
		return domain.NewValidationError(m.kind, fmt.Sprintf("entity %s does not exist", m.entityID))
	}
	if e.Locked {
		return domain.NewValidationError(m.kind, fmt.Sprintf("entity %s is locked", m.entityID))
	}
	return nil
}

func (m *Move) Execute() error {
	if err := m.Validate(); err != nil {
		return err
	}
	return m.translate(m.dx, m.dy)
}

func (m *Move) Undo() error {
	return m.translate(-m.dx, -m.dy)
}

func (m *Move) Redo() error {
	return m.translate(m.dx, m.dy)
}

func (m *Move) translate(dx, dy float64) error {
	e, ok := m.doc.GetEntity(m.entityID)
	if !ok {
		return fmt.Errorf("move %s: %w", m.entityID, domain.ErrEntityNotFound)
	}
	domain.Translate(&e, dx, dy)
	return m.doc.UpdateEntity(m.entityID, domain.EntityUpdate{Geometry: &e.Geometry})
}

// CanMergeWith accepts a follow-up interactive move of the same entity.
func (m *Move) CanMergeWith(next Command) bool {
	n, ok := next.(*Move)
	return ok && m.interactive && n.interactive && m.entityID == n.entityID
}

// MergeWith combines both deltas. The merged command keeps the older ID (the
// undo step identity) and the newer timestamp, so an ongoing drag keeps
// extending its own merge window.
func (m *Move) MergeWith(next Command) (Command, error) {
	n, ok := next.(*Move)
	if !ok || !m.CanMergeWith(next) {
		return nil, fmt.Errorf("cannot merge %s into %s", next.Kind(), m.kind)
	}
	merged := &Move{
		meta:        m.meta,
		doc:         m.doc,
		entityID:    m.entityID,
		dx:          m.dx + n.dx,
		dy:          m.dy + n.dy,
		interactive: true,
	}
	merged.createdAt = n.CreatedAt()
	return merged, nil
}

func (m *Move) AffectedEntities() []string {
	return []string{m.entityID}
}

func (m *Move) Serialize() domain.SerializedCommand {
	return m.meta.serialized(payloadToMap(movePayload{
		EntityID:    m.entityID,
		DX:          m.dx,
		DY:          m.dy,
		Interactive: m.interactive,
	}))
}

// DeserializeMove reconstructs a Move from its serialized form.
func DeserializeMove(sc domain.SerializedCommand, doc ports.Document) (Command, error) {
	var p movePayload
	if err := decodePayload(sc.Data, &p); err != nil {
		return nil, err
	}
	return &Move{
		meta:        restoreMeta(sc),
		doc:         doc,
		entityID:    p.EntityID,
		dx:          p.DX,
		dy:          p.DY,
		interactive: p.Interactive,
	}, nil
}
