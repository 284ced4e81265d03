// Package geometry holds the pure shape math used by the editor: bounding
// boxes, point containment for rectangles and circles, and the eight resize
// handles drawn around a selected region.
package geometry

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// Shape identifies the outline used to mask a region.
type Shape int

const (
	ShapeRectangle Shape = iota
	ShapeCircle
)

func (s Shape) String() string {
	switch s {
	case ShapeRectangle:
		return "rectangle"
	case ShapeCircle:
		return "circle"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// ParseShape accepts the names produced by Shape.String plus "rect".
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rectangle", "rect":
		return ShapeRectangle, nil
	case "circle":
		return ShapeCircle, nil
	}
	return 0, fmt.Errorf("unknown shape %q", s)
}

// Point is a location in surface pixel space.
type Point struct {
	X, Y float64
}

// Box is an axis-aligned box spanned by two corners. Start is not guaranteed
// to be the top-left corner; callers that need ordered edges use Normalize.
type Box struct {
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	EndX   float64 `json:"endX"`
	EndY   float64 `json:"endY"`
}

// BoxFrom returns the box spanned by two points.
func BoxFrom(a, b Point) Box {
	return Box{StartX: a.X, StartY: a.Y, EndX: b.X, EndY: b.Y}
}

// Normalize returns the ordered edges of b.
func (b Box) Normalize() (minX, minY, maxX, maxY float64) {
	return math.Min(b.StartX, b.EndX), math.Min(b.StartY, b.EndY),
		math.Max(b.StartX, b.EndX), math.Max(b.StartY, b.EndY)
}

// Normalized returns b with Start at the minimum corner.
func (b Box) Normalized() Box {
	minX, minY, maxX, maxY := b.Normalize()
	return Box{StartX: minX, StartY: minY, EndX: maxX, EndY: maxY}
}

// Width is the absolute horizontal extent.
func (b Box) Width() float64 { return math.Abs(b.EndX - b.StartX) }

// Height is the absolute vertical extent.
func (b Box) Height() float64 { return math.Abs(b.EndY - b.StartY) }

// Empty reports whether b has zero area.
func (b Box) Empty() bool { return b.Width() == 0 || b.Height() == 0 }

// Translate moves all four coordinates by (dx, dy).
func (b Box) Translate(dx, dy float64) Box {
	return Box{StartX: b.StartX + dx, StartY: b.StartY + dy, EndX: b.EndX + dx, EndY: b.EndY + dy}
}

// Scale multiplies every coordinate by f. It maps display space to source
// space when f is the inverse of the display scale.
func (b Box) Scale(f float64) Box {
	return Box{StartX: b.StartX * f, StartY: b.StartY * f, EndX: b.EndX * f, EndY: b.EndY * f}
}

// Rect returns the pixel rectangle covered by the normalized box, with edges
// rounded to the nearest pixel boundary.
func (b Box) Rect() image.Rectangle {
	minX, minY, maxX, maxY := b.Normalize()
	return image.Rect(int(math.Round(minX)), int(math.Round(minY)), int(math.Round(maxX)), int(math.Round(maxY)))
}

// Center is the midpoint of the box.
func (b Box) Center() Point {
	return Point{X: (b.StartX + b.EndX) / 2, Y: (b.StartY + b.EndY) / 2}
}

// CircleOf returns the circle associated with a box: centred on the box
// midpoint with a radius of half the diagonal, so the circle passes through
// the box corners rather than being inscribed in it.
func CircleOf(b Box) (cx, cy, r float64) {
	c := b.Center()
	return c.X, c.Y, math.Hypot(b.EndX-b.StartX, b.EndY-b.StartY) / 2
}

// PointInRectangle is an inclusive test against the normalized box.
func PointInRectangle(x, y float64, b Box) bool {
	minX, minY, maxX, maxY := b.Normalize()
	return x >= minX && x <= maxX && y >= minY && y <= maxY
}

// PointInCircle tests (x, y) against the circle from CircleOf.
func PointInCircle(x, y float64, b Box) bool {
	cx, cy, r := CircleOf(b)
	return math.Hypot(x-cx, y-cy) <= r
}

// Contains dispatches to the containment test for shape.
func Contains(shape Shape, x, y float64, b Box) bool {
	if shape == ShapeCircle {
		return PointInCircle(x, y, b)
	}
	return PointInRectangle(x, y, b)
}

// MarshalText encodes the shape by name.
func (s Shape) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a name accepted by ParseShape.
func (s *Shape) UnmarshalText(b []byte) error {
	v, err := ParseShape(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
