package command

import (
	"fmt"

	"github.com/draftbench/draftbench/pkg/domain"
	"github.com/draftbench/draftbench/pkg/ports"
)

// Join appends one polyline's vertices onto another and removes the source
// entity, producing a single continuous polyline.
//
// Redo philosophy: snapshot-based. Both originals are cloned on first
// execution; execute and redo rebuild the joined geometry from the clones.
type Join struct {
	meta
	doc          ports.Document
	targetID     string
	sourceID     string
	captured     bool
	targetBefore domain.Geometry
	source       domain.Entity
}

type joinPayload struct {
	TargetID     string           `json:"target_id"`
	SourceID     string           `json:"source_id"`
	Captured     bool             `json:"captured"`
	TargetBefore *domain.Geometry `json:"target_before,omitempty"`
	Source       *domain.Entity   `json:"source,omitempty"`
}

// NewJoin builds a join command merging source into target.
func NewJoin(doc ports.Document, targetID, sourceID string, opts ...Option) *Join {
	j := &Join{
		meta:     newMeta(KindJoin, "Join polylines"),
		doc:      doc,
		targetID: targetID,
		sourceID: sourceID,
	}
	j.meta.apply(opts)
	return j
}

// Validate refuses joining unless both entities exist, are polylines, are
// distinct, and neither is locked.
func (j *Join) Validate() error {
	if j.targetID == j.sourceID {
		return domain.NewValidationError(j.kind, "cannot join an entity with itself")
	}
	for _, id := range []string{j.targetID, j.sourceID} {
		e, ok := j.doc.GetEntity(id)
		if !ok {
			return domain.NewValidationError(j.kind, fmt.Sprintf("entity %s does not exist", id))
		}
		if e.Kind != domain.KindPolyline {
			return domain.NewValidationError(j.kind, fmt.Sprintf("entity %s is not a polyline", id))
		}
		if e.Locked {
			return domain.NewValidationError(j.kind, fmt.Sprintf("entity %s is locked", id))
		}
	}
	return nil
}

func (j *Join) Execute() error {
	if err := j.Validate(); err != nil {
		return err
	}
	target, _ := j.doc.GetEntity(j.targetID)
	source, _ := j.doc.GetEntity(j.sourceID)

	if !j.captured {
		j.targetBefore = target.Clone().Geometry
		j.source = source.Clone()
		j.captured = true
	}

	return j.apply()
}

// apply rebuilds the joined geometry from the captured snapshots and removes
// the source entity.
func (j *Join) apply() error {
	joined := cloneGeometry(j.targetBefore)
	joined.Vertices = append(joined.Vertices, j.source.Geometry.Vertices...)

	if err := j.doc.UpdateEntity(j.targetID, domain.EntityUpdate{Geometry: &joined}); err != nil {
		return err
	}
	return j.doc.RemoveEntity(j.sourceID)
}

func (j *Join) Undo() error {
	g := cloneGeometry(j.targetBefore)
	if err := j.doc.UpdateEntity(j.targetID, domain.EntityUpdate{Geometry: &g}); err != nil {
		return err
	}
	return j.doc.AddEntity(j.source.Clone())
}

func (j *Join) Redo() error {
	return j.apply()
}

func (j *Join) AffectedEntities() []string {
	return []string{j.targetID, j.sourceID}
}

func (j *Join) Serialize() domain.SerializedCommand {
	p := joinPayload{TargetID: j.targetID, SourceID: j.sourceID, Captured: j.captured}
	if j.captured {
		g := cloneGeometry(j.targetBefore)
		src := j.source.Clone()
		p.TargetBefore = &g
		p.Source = &src
	}
	return j.meta.serialized(payloadToMap(p))
}

// DeserializeJoin reconstructs a Join from its serialized form.
func DeserializeJoin(sc domain.SerializedCommand, doc ports.Document) (Command, error) {
	var p joinPayload
	if err := decodePayload(sc.Data, &p); err != nil {
		return nil, err
	}
	j := &Join{
		meta:     restoreMeta(sc),
		doc:      doc,
		targetID: p.TargetID,
		sourceID: p.SourceID,
		captured: p.Captured,
	}
	if p.TargetBefore != nil {
		j.targetBefore = *p.TargetBefore
	}
	if p.Source != nil {
		j.source = *p.Source
	}
	return j, nil
}
