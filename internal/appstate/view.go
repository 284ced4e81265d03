package appstate

import (
	"image"
	"math"

	"github.com/example/blurkit/internal/geometry"
)

const (
	MinZoom  = 0.5
	MaxZoom  = 3.0
	ZoomStep = 0.25
	panStep  = 20
)

// View is the on-screen transform of one page: a zoom about the canvas
// origin plus a pan in screen pixels. It only affects presentation; region
// coordinates stay in display space.
type View struct {
	Zoom float64
	Pan  image.Point
}

func newView() View { return View{Zoom: 1} }

func clampZoom(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

// ZoomIn returns v one step closer, up to MaxZoom.
func (v View) ZoomIn() View {
	v.Zoom = clampZoom(v.Zoom + ZoomStep)
	return v
}

// ZoomOut returns v one step further, down to MinZoom.
func (v View) ZoomOut() View {
	v.Zoom = clampZoom(v.Zoom - ZoomStep)
	return v
}

func (v View) Panned(dx, dy int) View {
	v.Pan = v.Pan.Add(image.Pt(dx, dy))
	return v
}

func (v View) origin() image.Point {
	return image.Pt(toolbarWidth, tabHeight).Add(v.Pan)
}

// canvasRect is where a surface of display size sz lands on screen.
func (v View) canvasRect(sz image.Point) image.Rectangle {
	o := v.origin()
	w := int(math.Round(float64(sz.X) * v.Zoom))
	h := int(math.Round(float64(sz.Y) * v.Zoom))
	return image.Rect(o.X, o.Y, o.X+w, o.Y+h)
}

// toDisplay maps a screen position to display coordinates on the surface.
func (v View) toDisplay(x, y float64) geometry.Point {
	o := v.origin()
	return geometry.Point{X: (x - float64(o.X)) / v.Zoom, Y: (y - float64(o.Y)) / v.Zoom}
}

func (v View) toScreen(p geometry.Point) image.Point {
	o := v.origin()
	return image.Pt(o.X+int(math.Round(p.X*v.Zoom)), o.Y+int(math.Round(p.Y*v.Zoom)))
}

func (v View) boxToScreen(b geometry.Box) image.Rectangle {
	minX, minY, maxX, maxY := b.Normalize()
	return image.Rectangle{
		Min: v.toScreen(geometry.Point{X: minX, Y: minY}),
		Max: v.toScreen(geometry.Point{X: maxX, Y: maxY}),
	}
}

// circleToScreen is the screen square around the region circle of b, whose
// radius is half the box diagonal.
func (v View) circleToScreen(b geometry.Box) image.Rectangle {
	cx, cy, r := geometry.CircleOf(b)
	return image.Rectangle{
		Min: v.toScreen(geometry.Point{X: cx - r, Y: cy - r}),
		Max: v.toScreen(geometry.Point{X: cx + r, Y: cy + r}),
	}
}
