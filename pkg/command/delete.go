package command

import (
	"fmt"

	"github.com/draftbench/draftbench/pkg/domain"
	"github.com/draftbench/draftbench/pkg/ports"
)

// Delete removes an entity, keeping a full clone as the undo memento.
//
// Redo philosophy: snapshot-based. The clone captured on first execution is
// what undo restores; redo removes the entity again by ID.
type Delete struct {
	meta
	doc      ports.Document
	entityID string
	captured bool
	snapshot domain.Entity
}

type deletePayload struct {
	EntityID string         `json:"entity_id"`
	Captured bool           `json:"captured"`
	Entity   *domain.Entity `json:"entity,omitempty"`
}

// NewDelete builds a delete command for the entity ID.
func NewDelete(doc ports.Document, entityID string, opts ...Option) *Delete {
	d := &Delete{
		meta:     newMeta(KindDelete, "Delete entity"),
		doc:      doc,
		entityID: entityID,
	}
	d.meta.apply(opts)
	return d
}

// Validate refuses deletion of absent or locked entities.
func (d *Delete) Validate() error {
	e, ok := d.doc.GetEntity(d.entityID)
	if !ok {
		return domain.NewValidationError(d.kind, fmt.Sprintf("entity %s does not exist", d.entityID))
	}
	if e.Locked {
		return domain.NewValidationError(d.kind, fmt.Sprintf("entity %s is locked", d.entityID))
	}
	return nil
}

func (d *Delete) Execute() error {
	if err := d.Validate(); err != nil {
		return err
	}
	if !d.captured {
		e, _ := d.doc.GetEntity(d.entityID)
		d.snapshot = e.Clone()
		d.name = fmt.Sprintf("Delete %s", e.Kind)
		d.captured = true
	}
	return d.doc.RemoveEntity(d.entityID)
}

func (d *Delete) Undo() error {
	return d.doc.AddEntity(d.snapshot.Clone())
}

func (d *Delete) Redo() error {
	return d.doc.RemoveEntity(d.entityID)
}

func (d *Delete) AffectedEntities() []string {
	return []string{d.entityID}
}

func (d *Delete) Serialize() domain.SerializedCommand {
	p := deletePayload{EntityID: d.entityID, Captured: d.captured}
	if d.captured {
		snap := d.snapshot.Clone()
		p.Entity = &snap
	}
	return d.meta.serialized(payloadToMap(p))
}

// DeserializeDelete reconstructs a Delete, including its captured snapshot if
// it had executed before being persisted.
func DeserializeDelete(sc domain.SerializedCommand, doc ports.Document) (Command, error) {
	var p deletePayload
	if err := decodePayload(sc.Data, &p); err != nil {
		return nil, err
	}
	d := &Delete{meta: restoreMeta(sc), doc: doc, entityID: p.EntityID, captured: p.Captured}
	if p.Entity != nil {
		d.snapshot = *p.Entity
	}
	return d, nil
}
