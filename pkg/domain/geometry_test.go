package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateLine(t *testing.T) {
	e := Entity{
		Kind: KindLine,
		Geometry: Geometry{
			Start: Point{X: 1, Y: 1},
			End:   Point{X: 4, Y: 5},
		},
	}

	Translate(&e, 2, -1)

	assert.Equal(t, Point{X: 3, Y: 0}, e.Geometry.Start)
	assert.Equal(t, Point{X: 6, Y: 4}, e.Geometry.End)
}

func TestTranslatePolyline(t *testing.T) {
	e := Entity{
		Kind: KindPolyline,
		Geometry: Geometry{
			Vertices: []Point{{X: 0, Y: 0}, {X: 1, Y: 1}},
		},
	}

	Translate(&e, 5, 5)

	assert.Equal(t, []Point{{X: 5, Y: 5}, {X: 6, Y: 6}}, e.Geometry.Vertices)
}

func TestRotateCircleAroundOrigin(t *testing.T) {
	e := Entity{
		Kind: KindCircle,
		Geometry: Geometry{
			Center: Point{X: 1, Y: 0},
			Radius: 2,
		},
	}

	RotateAround(&e, Point{}, math.Pi/2)

	assert.InDelta(t, 0, e.Geometry.Center.X, 1e-9)
	assert.InDelta(t, 1, e.Geometry.Center.Y, 1e-9)
	assert.Equal(t, 2.0, e.Geometry.Radius)
}

func TestRotateArcShiftsAngularSpan(t *testing.T) {
	e := Entity{
		Kind: KindArc,
		Geometry: Geometry{
			Center:     Point{X: 0, Y: 0},
			Radius:     1,
			StartAngle: 0,
			EndAngle:   math.Pi / 2,
		},
	}

	RotateAround(&e, Point{}, math.Pi/4)

	assert.InDelta(t, math.Pi/4, e.Geometry.StartAngle, 1e-9)
	assert.InDelta(t, 3*math.Pi/4, e.Geometry.EndAngle, 1e-9)
}

func TestRotateRectangleAccumulatesRotation(t *testing.T) {
	e := Entity{
		Kind: KindRectangle,
		Geometry: Geometry{
			Corner: Point{X: -1, Y: -1},
			Width:  2,
			Height: 2,
		},
	}

	// Center is the origin, so the corner stays put and only the rotation
	// field accumulates.
	RotateAround(&e, Point{}, math.Pi/2)

	assert.InDelta(t, -1, e.Geometry.Corner.X, 1e-9)
	assert.InDelta(t, -1, e.Geometry.Corner.Y, 1e-9)
	assert.InDelta(t, math.Pi/2, e.Geometry.Rotation, 1e-9)
}

func TestCloneIsolatesVertices(t *testing.T) {
	e := Entity{
		Kind:     KindPolygon,
		Geometry: Geometry{Vertices: []Point{{X: 1, Y: 2}}},
	}

	c := e.Clone()
	c.Geometry.Vertices[0] = Point{X: 9, Y: 9}

	assert.Equal(t, Point{X: 1, Y: 2}, e.Geometry.Vertices[0], "clone must not alias the original vertex slice")
}

func TestEntityUpdateApply(t *testing.T) {
	e := Entity{ID: "a", Kind: KindLine, Layer: "0", Visible: true}

	layer := "markup"
	locked := true
	EntityUpdate{Layer: &layer, Locked: &locked}.Apply(&e)

	assert.Equal(t, "markup", e.Layer)
	assert.True(t, e.Locked)
	assert.True(t, e.Visible, "untouched fields keep their values")
}
