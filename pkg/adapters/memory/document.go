package memory

import (
	"fmt"
	"sync"

	"github.com/draftbench/draftbench/pkg/domain"
)

// Document implements ports.Document with a plain entity map. It is the
// reference document for tests, demos, and headless tooling; the real editor
// wires its own scene store behind the same port.
//
// Safe for concurrent use, although the engine itself is single-threaded.
type Document struct {
	mu       sync.RWMutex
	entities map[string]domain.Entity
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{entities: make(map[string]domain.Entity)}
}

// AddEntity inserts a clone of the entity.
func (d *Document) AddEntity(e domain.Entity) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.entities[e.ID]; exists {
		return fmt.Errorf("entity %s already exists", e.ID)
	}
	d.entities[e.ID] = e.Clone()
	return nil
}

// RemoveEntity deletes the entity.
func (d *Document) RemoveEntity(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.entities[id]; !exists {
		return fmt.Errorf("remove %s: %w", id, domain.ErrEntityNotFound)
	}
	delete(d.entities, id)
	return nil
}

// GetEntity returns a clone so callers cannot mutate stored state by
// reference.
func (d *Document) GetEntity(id string) (domain.Entity, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.entities[id]
	if !ok {
		return domain.Entity{}, false
	}
	return e.Clone(), true
}

// UpdateEntity applies a partial update.
func (d *Document) UpdateEntity(id string, update domain.EntityUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entities[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id, domain.ErrEntityNotFound)
	}
	update.Apply(&e)
	d.entities[id] = e
	return nil
}

// UpdateVertex replaces the vertex at index.
func (d *Document) UpdateVertex(id string, index int, p domain.Point) error {
	return d.withVertices(id, func(verts []domain.Point) ([]domain.Point, error) {
		if index < 0 || index >= len(verts) {
			return nil, fmt.Errorf("vertex index %d out of range for %s", index, id)
		}
		verts[index] = p
		return verts, nil
	})
}

// InsertVertex inserts a vertex at index; index may equal the vertex count.
func (d *Document) InsertVertex(id string, index int, p domain.Point) error {
	return d.withVertices(id, func(verts []domain.Point) ([]domain.Point, error) {
		if index < 0 || index > len(verts) {
			return nil, fmt.Errorf("vertex index %d out of range for %s", index, id)
		}
		verts = append(verts, domain.Point{})
		copy(verts[index+1:], verts[index:])
		verts[index] = p
		return verts, nil
	})
}

// RemoveVertex deletes the vertex at index.
func (d *Document) RemoveVertex(id string, index int) error {
	return d.withVertices(id, func(verts []domain.Point) ([]domain.Point, error) {
		if index < 0 || index >= len(verts) {
			return nil, fmt.Errorf("vertex index %d out of range for %s", index, id)
		}
		return append(verts[:index], verts[index+1:]...), nil
	})
}

// GetVertices returns a copy of the vertex list.
func (d *Document) GetVertices(id string) ([]domain.Point, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.entities[id]
	if !ok || e.Geometry.Vertices == nil {
		return nil, false
	}
	out := make([]domain.Point, len(e.Geometry.Vertices))
	copy(out, e.Geometry.Vertices)
	return out, true
}

// Len reports the number of entities (test helper).
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entities)
}

func (d *Document) withVertices(id string, fn func([]domain.Point) ([]domain.Point, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entities[id]
	if !ok {
		return fmt.Errorf("vertices of %s: %w", id, domain.ErrEntityNotFound)
	}
	if e.Geometry.Vertices == nil {
		return fmt.Errorf("entity %s has no vertices", id)
	}

	verts := make([]domain.Point, len(e.Geometry.Vertices))
	copy(verts, e.Geometry.Vertices)

	updated, err := fn(verts)
	if err != nil {
		return err
	}
	e.Geometry.Vertices = updated
	d.entities[id] = e
	return nil
}
