package command

import (
	"fmt"

	"github.com/draftbench/draftbench/pkg/domain"
	"github.com/draftbench/draftbench/pkg/ports"
)

// Rotate turns an entity around a center point.
//
// Redo philosophy: snapshot-based. The pre-rotation geometry is captured on
// first execution; execute and redo restore that snapshot and re-derive the
// result from it plus the angle, which makes them idempotent. Floating-point
// drift cannot accumulate across undo/redo cycles.
//
// Interactive rotations about the same center merge by composing angles; the
// merged command keeps the oldest snapshot.
type Rotate struct {
	meta
	doc         ports.Document
	entityID    string
	center      domain.Point
	angle       float64
	interactive bool
	captured    bool
	before      domain.Geometry
}

type rotatePayload struct {
	EntityID    string           `json:"entity_id"`
	Center      domain.Point     `json:"center"`
	Angle       float64          `json:"angle"`
	Interactive bool             `json:"interactive"`
	Captured    bool             `json:"captured"`
	Before      *domain.Geometry `json:"before,omitempty"`
}

// NewRotate builds a rotate command. Angle is radians, counter-clockwise.
func NewRotate(doc ports.Document, entityID string, center domain.Point, angle float64, interactive bool, opts ...Option) *Rotate {
	r := &Rotate{
		meta:        newMeta(KindRotate, "Rotate entity"),
		doc:         doc,
		entityID:    entityID,
		center:      center,
		angle:       angle,
		interactive: interactive,
	}
	r.meta.apply(opts)
	return r
}

// Validate refuses rotating absent or locked entities.
func (r *Rotate) Validate() error {
	e, ok := r.doc.GetEntity(r.entityID)
	if !ok {
		return domain.NewValidationError(r.kind, fmt.Sprintf("entity %s does not exist", r.entityID))
	}
	if e.Locked {
		return domain.NewValidationError(r.kind, fmt.Sprintf("entity %s is locked", r.entityID))
	}
	return nil
}

func (r *Rotate) Execute() error {
	if err := r.Validate(); err != nil {
		return err
	}
	e, _ := r.doc.GetEntity(r.entityID)
	if !r.captured {
		r.before = e.Clone().Geometry
		r.captured = true
	}
	rotated := e
	rotated.Geometry = cloneGeometry(r.before)
	domain.RotateAround(&rotated, r.center, r.angle)
	return r.doc.UpdateEntity(r.entityID, domain.EntityUpdate{Geometry: &rotated.Geometry})
}

func (r *Rotate) Undo() error {
	g := cloneGeometry(r.before)
	return r.doc.UpdateEntity(r.entityID, domain.EntityUpdate{Geometry: &g})
}

func (r *Rotate) Redo() error {
	return r.Execute()
}

// CanMergeWith accepts a follow-up interactive rotation of the same entity
// about the same center.
func (r *Rotate) CanMergeWith(next Command) bool {
	n, ok := next.(*Rotate)
	return ok && r.interactive && n.interactive &&
		r.entityID == n.entityID && r.center == n.center
}

// MergeWith composes the angles, keeping the receiver's snapshot and ID and
// the newer timestamp.
func (r *Rotate) MergeWith(next Command) (Command, error) {
	n, ok := next.(*Rotate)
	if !ok || !r.CanMergeWith(next) {
		return nil, fmt.Errorf("cannot merge %s into %s", next.Kind(), r.kind)
	}
	merged := &Rotate{
		meta:        r.meta,
		doc:         r.doc,
		entityID:    r.entityID,
		center:      r.center,
		angle:       r.angle + n.angle,
		interactive: true,
		captured:    r.captured,
		before:      cloneGeometry(r.before),
	}
	merged.createdAt = n.CreatedAt()
	return merged, nil
}

func (r *Rotate) AffectedEntities() []string {
	return []string{r.entityID}
}

func (r *Rotate) Serialize() domain.SerializedCommand {
	p := rotatePayload{
		EntityID:    r.entityID,
		Center:      r.center,
		Angle:       r.angle,
		Interactive: r.interactive,
		Captured:    r.captured,
	}
	if r.captured {
		g := cloneGeometry(r.before)
		p.Before = &g
	}
	return r.meta.serialized(payloadToMap(p))
}

// DeserializeRotate reconstructs a Rotate, including its pre-rotation
// snapshot if one was captured.
func DeserializeRotate(sc domain.SerializedCommand, doc ports.Document) (Command, error) {
	var p rotatePayload
	if err := decodePayload(sc.Data, &p); err != nil {
		return nil, err
	}
	r := &Rotate{
		meta:        restoreMeta(sc),
		doc:         doc,
		entityID:    p.EntityID,
		center:      p.Center,
		angle:       p.Angle,
		interactive: p.Interactive,
		captured:    p.Captured,
	}
	if p.Before != nil {
		r.before = *p.Before
	}
	return r, nil
}

func cloneGeometry(g domain.Geometry) domain.Geometry {
	c := g
	if g.Vertices != nil {
		c.Vertices = make([]domain.Point, len(g.Vertices))
		copy(c.Vertices, g.Vertices)
	}
	return c
}
