package command

import (
	"fmt"

	"github.com/draftbench/draftbench/pkg/domain"
	"github.com/draftbench/draftbench/pkg/ports"
)

// Create adds a new entity to the document.
//
// Redo philosophy: snapshot-based. The entity captured at construction is the
// single source of truth; redo re-adds exactly that entity.
type Create struct {
	meta
	doc    ports.Document
	entity domain.Entity
}

type createPayload struct {
	Entity domain.Entity `json:"entity"`
}

// NewCreate builds a create command for the given entity. The entity is
// cloned at construction so later caller mutation cannot leak in.
func NewCreate(doc ports.Document, e domain.Entity, opts ...Option) *Create {
	c := &Create{
		meta:   newMeta(KindCreate, fmt.Sprintf("Create %s", e.Kind)),
		doc:    doc,
		entity: e.Clone(),
	}
	c.meta.apply(opts)
	return c
}

// Validate refuses creation when the ID is already taken.
func (c *Create) Validate() error {
	if _, ok := c.doc.GetEntity(c.entity.ID); ok {
		return domain.NewValidationError(c.kind, fmt.Sprintf("entity %s already exists", c.entity.ID))
	}
	return nil
}

func (c *Create) Execute() error {
	if err := c.Validate(); err != nil {
		return err
	}
	return c.doc.AddEntity(c.entity.Clone())
}

func (c *Create) Undo() error {
	return c.doc.RemoveEntity(c.entity.ID)
}

func (c *Create) Redo() error {
	return c.Execute()
}

func (c *Create) AffectedEntities() []string {
	return []string{c.entity.ID}
}

func (c *Create) Serialize() domain.SerializedCommand {
	return c.meta.serialized(payloadToMap(createPayload{Entity: c.entity}))
}

// DeserializeCreate reconstructs a Create from its serialized form.
func DeserializeCreate(sc domain.SerializedCommand, doc ports.Document) (Command, error) {
	var p createPayload
	if err := decodePayload(sc.Data, &p); err != nil {
		return nil, err
	}
	return &Create{meta: restoreMeta(sc), doc: doc, entity: p.Entity}, nil
}
