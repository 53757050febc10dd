package domain

// Point is a 2D coordinate in drawing units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EntityKind discriminates the geometry variants the engine understands.
type EntityKind string

const (
	KindLine      EntityKind = "line"
	KindCircle    EntityKind = "circle"
	KindArc       EntityKind = "arc"
	KindRectangle EntityKind = "rectangle"
	KindPolyline  EntityKind = "polyline"
	// KindPolygon is a closed overlay polygon (measurement/markup layer).
	KindPolygon EntityKind = "polygon"
)

// Geometry holds the kind-specific shape data. Only the fields relevant to
// the entity's kind are meaningful; the rest stay at their zero values.
type Geometry struct {
	// Line.
	Start Point `json:"start,omitempty"`
	End   Point `json:"end,omitempty"`

	// Circle and arc.
	Center     Point   `json:"center,omitempty"`
	Radius     float64 `json:"radius,omitempty"`
	StartAngle float64 `json:"start_angle,omitempty"`
	EndAngle   float64 `json:"end_angle,omitempty"`

	// Rectangle. Corner is the lower-left corner; Rotation is radians
	// around the rectangle's center.
	Corner   Point   `json:"corner,omitempty"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Rotation float64 `json:"rotation,omitempty"`

	// Polyline and polygon.
	Vertices []Point `json:"vertices,omitempty"`
	Closed   bool    `json:"closed,omitempty"`
}

// Entity is one drawable object in the document.
type Entity struct {
	ID       string     `json:"id"`
	Kind     EntityKind `json:"kind"`
	Layer    string     `json:"layer"`
	Visible  bool       `json:"visible"`
	Locked   bool       `json:"locked"`
	Geometry Geometry   `json:"geometry"`
}

// Clone returns a deep value copy of the entity. Undo mementos hold clones so
// that later document mutation cannot corrupt a captured "before" state.
func (e Entity) Clone() Entity {
	c := e
	if e.Geometry.Vertices != nil {
		c.Geometry.Vertices = make([]Point, len(e.Geometry.Vertices))
		copy(c.Geometry.Vertices, e.Geometry.Vertices)
	}
	return c
}

// EntityUpdate applies a partial update. Pointer fields distinguish "not
// provided" (nil) from "set to the zero value".
type EntityUpdate struct {
	Layer    *string   `json:"layer,omitempty"`
	Visible  *bool     `json:"visible,omitempty"`
	Locked   *bool     `json:"locked,omitempty"`
	Geometry *Geometry `json:"geometry,omitempty"`
}

// Apply merges the update into the entity in place.
func (u EntityUpdate) Apply(e *Entity) {
	if u.Layer != nil {
		e.Layer = *u.Layer
	}
	if u.Visible != nil {
		e.Visible = *u.Visible
	}
	if u.Locked != nil {
		e.Locked = *u.Locked
	}
	if u.Geometry != nil {
		g := *u.Geometry
		if u.Geometry.Vertices != nil {
			g.Vertices = make([]Point, len(u.Geometry.Vertices))
			copy(g.Vertices, u.Geometry.Vertices)
		}
		e.Geometry = g
	}
}
