package command

import (
	"fmt"

	"github.com/draftbench/draftbench/pkg/domain"
	"github.com/draftbench/draftbench/pkg/ports"
)

// MoveVertex drags one vertex of a polyline or polygon to a new position.
//
// Redo philosophy: incremental in spirit but idempotent in practice — execute
// sets the vertex to the target point, undo sets it back to the point
// captured on first execution.
//
// Interactive vertex drags on the same entity and index merge: the merged
// command keeps the original "from" point and the latest "to" point.
type MoveVertex struct {
	meta
	doc         ports.Document
	entityID    string
	index       int
	to          domain.Point
	interactive bool
	captured    bool
	from        domain.Point
}

type moveVertexPayload struct {
	EntityID    string       `json:"entity_id"`
	Index       int          `json:"index"`
	To          domain.Point `json:"to"`
	Interactive bool         `json:"interactive"`
	Captured    bool         `json:"captured"`
	From        domain.Point `json:"from"`
}

// NewMoveVertex builds a vertex move command.
func NewMoveVertex(doc ports.Document, entityID string, index int, to domain.Point, interactive bool, opts ...Option) *MoveVertex {
	v := &MoveVertex{
		meta:        newMeta(KindMoveVertex, "Move vertex"),
		doc:         doc,
		entityID:    entityID,
		index:       index,
		to:          to,
		interactive: interactive,
	}
	v.meta.apply(opts)
	return v
}

// Validate refuses out-of-range indices and non-vertex entities.
func (v *MoveVertex) Validate() error {
	return validateVertexIndex(v.kind, v.doc, v.entityID, v.index, false)
}

func (v *MoveVertex) Execute() error {
	if err := v.Validate(); err != nil {
		return err
	}
	if !v.captured {
		verts, _ := v.doc.GetVertices(v.entityID)
		v.from = verts[v.index]
		v.captured = true
	}
	return v.doc.UpdateVertex(v.entityID, v.index, v.to)
}

func (v *MoveVertex) Undo() error {
	return v.doc.UpdateVertex(v.entityID, v.index, v.from)
}

func (v *MoveVertex) Redo() error {
	return v.doc.UpdateVertex(v.entityID, v.index, v.to)
}

// CanMergeWith accepts a follow-up interactive drag of the same vertex.
func (v *MoveVertex) CanMergeWith(next Command) bool {
	n, ok := next.(*MoveVertex)
	return ok && v.interactive && n.interactive &&
		v.entityID == n.entityID && v.index == n.index
}

// MergeWith keeps the receiver's original position and the newer target, so
// one undo returns the vertex to where the drag began.
func (v *MoveVertex) MergeWith(next Command) (Command, error) {
	n, ok := next.(*MoveVertex)
	if !ok || !v.CanMergeWith(next) {
		return nil, fmt.Errorf("cannot merge %s into %s", next.Kind(), v.kind)
	}
	merged := &MoveVertex{
		meta:        v.meta,
		doc:         v.doc,
		entityID:    v.entityID,
		index:       v.index,
		to:          n.to,
		interactive: true,
		captured:    v.captured,
		from:        v.from,
	}
	merged.createdAt = n.CreatedAt()
	return merged, nil
}

func (v *MoveVertex) AffectedEntities() []string {
	return []string{v.entityID}
}

func (v *MoveVertex) Serialize() domain.SerializedCommand {
	return v.meta.serialized(payloadToMap(moveVertexPayload{
		EntityID:    v.entityID,
		Index:       v.index,
		To:          v.to,
		Interactive: v.interactive,
		Captured:    v.captured,
		From:        v.from,
	}))
}

// DeserializeMoveVertex reconstructs a MoveVertex from its serialized form.
func DeserializeMoveVertex(sc domain.SerializedCommand, doc ports.Document) (Command, error) {
	var p moveVertexPayload
	if err := decodePayload(sc.Data, &p); err != nil {
		return nil, err
	}
	return &MoveVertex{
		meta:        restoreMeta(sc),
		doc:         doc,
		entityID:    p.EntityID,
		index:       p.Index,
		to:          p.To,
		interactive: p.Interactive,
		captured:    p.Captured,
		from:        p.From,
	}, nil
}

// InsertVertex adds a vertex into a polyline or polygon.
//
// Redo philosophy: snapshot-based; the insertion is fully described by its
// parameters, so redo re-runs the insertion.
type InsertVertex struct {
	meta
	doc      ports.Document
	entityID string
	index    int
	point    domain.Point
}

type insertVertexPayload struct {
	EntityID string       `json:"entity_id"`
	Index    int          `json:"index"`
	Point    domain.Point `json:"point"`
}

// NewInsertVertex builds an insert command. Index may equal the current
// vertex count (append).
func NewInsertVertex(doc ports.Document, entityID string, index int, p domain.Point, opts ...Option) *InsertVertex {
	v := &InsertVertex{
		meta:     newMeta(KindInsertVertex, "Insert vertex"),
		doc:      doc,
		entityID: entityID,
		index:    index,
		point:    p,
	}
	v.meta.apply(opts)
	return v
}

func (v *InsertVertex) Validate() error {
	return validateVertexIndex(v.kind, v.doc, v.entityID, v.index, true)
}

func (v *InsertVertex) Execute() error {
	if err := v.Validate(); err != nil {
		return err
	}
	return v.doc.InsertVertex(v.entityID, v.index, v.point)
}

func (v *InsertVertex) Undo() error {
	return v.doc.RemoveVertex(v.entityID, v.index)
}

func (v *InsertVertex) Redo() error {
	return v.doc.InsertVertex(v.entityID, v.index, v.point)
}

func (v *InsertVertex) AffectedEntities() []string {
	return []string{v.entityID}
}

func (v *InsertVertex) Serialize() domain.SerializedCommand {
	return v.meta.serialized(payloadToMap(insertVertexPayload{
		EntityID: v.entityID,
		Index:    v.index,
		Point:    v.point,
	}))
}

// DeserializeInsertVertex reconstructs an InsertVertex.
func DeserializeInsertVertex(sc domain.SerializedCommand, doc ports.Document) (Command, error) {
	var p insertVertexPayload
	if err := decodePayload(sc.Data, &p); err != nil {
		return nil, err
	}
	return &InsertVertex{
		meta:     restoreMeta(sc),
		doc:      doc,
		entityID: p.EntityID,
		index:    p.Index,
		point:    p.Point,
	}, nil
}

// RemoveVertex deletes a vertex from a polyline or polygon.
//
// Redo philosophy: snapshot-based; the removed point is captured on first
// execution so undo can re-insert it at the same index.
type RemoveVertex struct {
	meta
	doc      ports.Document
	entityID string
	index    int
	captured bool
	removed  domain.Point
}

type removeVertexPayload struct {
	EntityID string       `json:"entity_id"`
	Index    int          `json:"index"`
	Captured bool         `json:"captured"`
	Removed  domain.Point `json:"removed"`
}

// NewRemoveVertex builds a remove command.
func NewRemoveVertex(doc ports.Document, entityID string, index int, opts ...Option) *RemoveVertex {
	v := &RemoveVertex{
		meta:     newMeta(KindRemoveVertex, "Remove vertex"),
		doc:      doc,
		entityID: entityID,
		index:    index,
	}
	v.meta.apply(opts)
	return v
}

// Validate additionally refuses removal that would leave fewer than two
// vertices.
func (v *RemoveVertex) Validate() error {
	if err := validateVertexIndex(v.kind, v.doc, v.entityID, v.index, false); err != nil {
		return err
	}
	verts, _ := v.doc.GetVertices(v.entityID)
	if len(verts) <= 2 {
		return domain.NewValidationError(v.kind, fmt.Sprintf("entity %s needs at least two vertices", v.entityID))
	}
	return nil
}

func (v *RemoveVertex) Execute() error {
	if err := v.Validate(); err != nil {
		return err
	}
	if !v.captured {
		verts, _ := v.doc.GetVertices(v.entityID)
		v.removed = verts[v.index]
		v.captured = true
	}
	return v.doc.RemoveVertex(v.entityID, v.index)
}

func (v *RemoveVertex) Undo() error {
	return v.doc.InsertVertex(v.entityID, v.index, v.removed)
}

func (v *RemoveVertex) Redo() error {
	return v.doc.RemoveVertex(v.entityID, v.index)
}

func (v *RemoveVertex) AffectedEntities() []string {
	return []string{v.entityID}
}

func (v *RemoveVertex) Serialize() domain.SerializedCommand {
	return v.meta.serialized(payloadToMap(removeVertexPayload{
		EntityID: v.entityID,
		Index:    v.index,
		Captured: v.captured,
		Removed:  v.removed,
	}))
}

// DeserializeRemoveVertex reconstructs a RemoveVertex.
func DeserializeRemoveVertex(sc domain.SerializedCommand, doc ports.Document) (Command, error) {
	var p removeVertexPayload
	if err := decodePayload(sc.Data, &p); err != nil {
		return nil, err
	}
	return &RemoveVertex{
		meta:     restoreMeta(sc),
		doc:      doc,
		entityID: p.EntityID,
		index:    p.Index,
		captured: p.Captured,
		removed:  p.Removed,
	}, nil
}

// validateVertexIndex checks the entity exists, is unlocked, carries
// vertices, and that index is in range. allowEnd permits index == len for
// insertion.
func validateVertexIndex(kind string, doc ports.Document, entityID string, index int, allowEnd bool) error {
	e, ok := doc.GetEntity(entityID)
	if !ok {
		return domain.NewValidationError(kind, fmt.Sprintf("entity %s does not exist", entityID))
	}
	if e.Locked {
		return domain.NewValidationError(kind, fmt.Sprintf("entity %s is locked", entityID))
	}
	verts, ok := doc.GetVertices(entityID)
	if !ok {
		return domain.NewValidationError(kind, fmt.Sprintf("entity %s has no vertices", entityID))
	}
	limit := len(verts)
	if allowEnd {
		limit++
	}
	if index < 0 || index >= limit {
		return domain.NewValidationError(kind, fmt.Sprintf("vertex index %d out of range for entity %s", index, entityID))
	}
	return nil
}
