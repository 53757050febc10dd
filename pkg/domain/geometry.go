package domain

import "math"

// Geometry dispatch is centralized here: commands never switch on entity
// kinds themselves. Adding a kind means extending these two functions, not
// hunting through every command.

// Translate moves the entity by (dx, dy) in place.
func Translate(e *Entity, dx, dy float64) {
	switch e.Kind {
	case KindLine:
		e.Geometry.Start = shift(e.Geometry.Start, dx, dy)
		e.Geometry.End = shift(e.Geometry.End, dx, dy)
	case KindCircle, KindArc:
		e.Geometry.Center = shift(e.Geometry.Center, dx, dy)
	case KindRectangle:
		e.Geometry.Corner = shift(e.Geometry.Corner, dx, dy)
	case KindPolyline, KindPolygon:
		for i := range e.Geometry.Vertices {
			e.Geometry.Vertices[i] = shift(e.Geometry.Vertices[i], dx, dy)
		}
	}
}

// RotateAround rotates the entity by angle radians around center, in place.
// Rectangles accumulate the angle into their Rotation field; arcs rotate
// their angular span along with the center.
func RotateAround(e *Entity, center Point, angle float64) {
	switch e.Kind {
	case KindLine:
		e.Geometry.Start = rotate(e.Geometry.Start, center, angle)
		e.Geometry.End = rotate(e.Geometry.End, center, angle)
	case KindCircle:
		e.Geometry.Center = rotate(e.Geometry.Center, center, angle)
	case KindArc:
		e.Geometry.Center = rotate(e.Geometry.Center, center, angle)
		e.Geometry.StartAngle += angle
		e.Geometry.EndAngle += angle
	case KindRectangle:
		rc := rectCenter(e.Geometry)
		moved := rotate(rc, center, angle)
		e.Geometry.Corner = shift(e.Geometry.Corner, moved.X-rc.X, moved.Y-rc.Y)
		e.Geometry.Rotation += angle
	case KindPolyline, KindPolygon:
		for i := range e.Geometry.Vertices {
			e.Geometry.Vertices[i] = rotate(e.Geometry.Vertices[i], center, angle)
		}
	}
}

func shift(p Point, dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

func rotate(p, center Point, angle float64) Point {
	sin, cos := math.Sincos(angle)
	dx := p.X - center.X
	dy := p.Y - center.Y
	return Point{
		X: center.X + dx*cos - dy*sin,
		Y: center.Y + dx*sin + dy*cos,
	}
}

func rectCenter(g Geometry) Point {
	return Point{X: g.Corner.X + g.Width/2, Y: g.Corner.Y + g.Height/2}
}
