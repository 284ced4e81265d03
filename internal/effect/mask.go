package effect

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// kappa places cubic Bézier control points so four segments trace a circle.
const kappa = 0.5522847498307936

// circleBounds is the pixel rectangle enclosing the circle.
func circleBounds(cx, cy, r float64) image.Rectangle {
	return image.Rect(
		int(math.Floor(cx-r)), int(math.Floor(cy-r)),
		int(math.Ceil(cx+r)), int(math.Ceil(cy+r)),
	)
}

// circleMask rasterizes an anti-aliased disc over rect. The mask is anchored
// at the origin: mask pixel (0, 0) corresponds to rect.Min.
func circleMask(rect image.Rectangle, cx, cy, r float64) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	if rect.Empty() || r <= 0 {
		return mask
	}
	z := vector.NewRasterizer(rect.Dx(), rect.Dy())
	ox := cx - float64(rect.Min.X)
	oy := cy - float64(rect.Min.Y)
	k := r * kappa
	f := func(v float64) float32 { return float32(v) }
	z.MoveTo(f(ox+r), f(oy))
	z.CubeTo(f(ox+r), f(oy+k), f(ox+k), f(oy+r), f(ox), f(oy+r))
	z.CubeTo(f(ox-k), f(oy+r), f(ox-r), f(oy+k), f(ox-r), f(oy))
	z.CubeTo(f(ox-r), f(oy-k), f(ox-k), f(oy-r), f(ox), f(oy-r))
	z.CubeTo(f(ox+k), f(oy-r), f(ox+r), f(oy-k), f(ox+r), f(oy))
	z.ClosePath()
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// paint composites src onto dst over clip. mask, when given, is anchored at
// maskOrigin in dst space.
func paint(dst *image.RGBA, clip image.Rectangle, src image.Image, mask *image.Alpha, maskOrigin image.Point, op draw.Op) {
	if mask == nil {
		draw.Draw(dst, clip, src, clip.Min, op)
		return
	}
	draw.DrawMask(dst, clip, src, clip.Min, mask, clip.Min.Sub(maskOrigin), draw.Over)
}
