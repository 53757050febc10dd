package ports

import "github.com/draftbench/draftbench/pkg/domain"

// Document is the externally-owned drawing the engine mutates. Commands call
// only through this capability; they never reach into rendering or storage.
//
// All methods are synchronous and authoritative: when a call returns, the
// mutation is visible to the caller.
type Document interface {
	// AddEntity inserts the entity. Adding an ID that already exists is an
	// error.
	AddEntity(e domain.Entity) error

	// RemoveEntity deletes the entity. Returns domain.ErrEntityNotFound if
	// the ID does not resolve.
	RemoveEntity(id string) error

	// GetEntity returns a copy of the entity, or false if absent.
	GetEntity(id string) (domain.Entity, bool)

	// UpdateEntity applies a partial update.
	UpdateEntity(id string, update domain.EntityUpdate) error

	// Vertex operations apply to polyline/polygon entities.
	UpdateVertex(id string, index int, p domain.Point) error
	InsertVertex(id string, index int, p domain.Point) error
	RemoveVertex(id string, index int) error

	// GetVertices returns a copy of the vertex list, or false if the
	// entity is absent or has no vertices.
	GetVertices(id string) ([]domain.Point, bool)
}
