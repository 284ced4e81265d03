// Package effect rasterizes region effects onto a surface. The same code
// path renders the live preview and the exported file, parameterised by the
// scale that maps region coordinates onto the raster being drawn.
package effect

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/example/blurkit/internal/geometry"
	"github.com/example/blurkit/internal/region"
)

// ErrNoRenderContext reports that a raster to draw on could not be obtained.
var ErrNoRenderContext = errors.New("render context unavailable")

// MaxPixels bounds the size of a raster the rasterizer will allocate.
const MaxPixels = 1 << 28

// Composite returns a copy of src with every region applied in paint order.
// Region coordinates are multiplied by scale to reach src pixel space; effect
// sizes are scaled the same way. Every effect samples the untouched source,
// never the partially composited result.
func Composite(src *image.RGBA, regions []region.Region, scale float64) (*image.RGBA, error) {
	if err := checkRaster(src, scale); err != nil {
		return nil, err
	}
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	for _, r := range regions {
		if err := Apply(dst, src, r, scale); err != nil {
			return nil, fmt.Errorf("region %s: %w", r.ID, err)
		}
	}
	return dst, nil
}

// Apply draws a single region's effect onto dst, sampling from src.
func Apply(dst, src *image.RGBA, r region.Region, scale float64) error {
	if dst == nil {
		return ErrNoRenderContext
	}
	if err := checkRaster(src, scale); err != nil {
		return err
	}
	box := r.Box.Scale(scale)
	if box.Empty() {
		return nil
	}

	footprint := box.Rect()
	var mask *image.Alpha
	if r.Shape == geometry.ShapeCircle {
		cx, cy, radius := geometry.CircleOf(box)
		if r.Effect.Kind != region.Pixelate {
			footprint = circleBounds(cx, cy, radius)
		}
		maskRect := circleBounds(cx, cy, radius)
		mask = circleMask(maskRect, cx, cy, radius)
		return applyMasked(dst, src, r.Effect, box, footprint, mask, maskRect.Min, scale)
	}
	return applyMasked(dst, src, r.Effect, box, footprint, nil, image.Point{}, scale)
}

func applyMasked(dst, src *image.RGBA, fx region.Effect, box geometry.Box, footprint image.Rectangle, mask *image.Alpha, maskOrigin image.Point, scale float64) error {
	clip := footprint.Intersect(dst.Bounds()).Intersect(src.Bounds())
	if clip.Empty() {
		return nil
	}
	switch fx.Kind {
	case region.Solid:
		paint(dst, clip, image.NewUniform(fx.Color), mask, maskOrigin, draw.Over)
	case region.Pixelate:
		cells := pixelate(src, box, clip, float64(fx.Intensity)*scale)
		paint(dst, clip, cells, mask, maskOrigin, draw.Src)
	case region.Gaussian:
		window := clip
		if mask != nil {
			// The circle is clipped out of a blur of the surrounding raster.
			pad := int(math.Ceil(3 * float64(fx.Intensity) * scale))
			window = clip.Inset(-pad).Intersect(src.Bounds())
		}
		blurred := gaussianBlur(crop(src, window), float64(fx.Intensity)*scale)
		paint(dst, clip, blurred, mask, maskOrigin, draw.Src)
	default:
		return fmt.Errorf("unknown effect %v", fx.Kind)
	}
	return nil
}

// pixelate fills clip with cells of side cell laid out from the box's
// minimum corner. Cell edges are rounded to whole pixels and each cell takes
// the colour of the single source pixel at its rounded top-left corner.
func pixelate(src *image.RGBA, box geometry.Box, clip image.Rectangle, cell float64) *image.RGBA {
	if cell < 1 {
		cell = 1
	}
	out := image.NewRGBA(clip)
	minX, minY, maxX, maxY := box.Normalize()
	sb := src.Bounds()
	for y := minY; y < maxY; y += cell {
		top := int(math.Round(y))
		y0 := max(top, clip.Min.Y)
		y1 := min(int(math.Round(y+cell)), clip.Max.Y)
		if y0 >= y1 {
			continue
		}
		sy := min(max(top, sb.Min.Y), sb.Max.Y-1)
		for x := minX; x < maxX; x += cell {
			left := int(math.Round(x))
			x0 := max(left, clip.Min.X)
			x1 := min(int(math.Round(x+cell)), clip.Max.X)
			if x0 >= x1 {
				continue
			}
			sx := min(max(left, sb.Min.X), sb.Max.X-1)
			si := src.PixOffset(sx, sy)
			sample := src.Pix[si : si+4 : si+4]
			for py := y0; py < y1; py++ {
				row := out.PixOffset(x0, py)
				for px := x0; px < x1; px++ {
					copy(out.Pix[row:row+4], sample)
					row += 4
				}
			}
		}
	}
	return out
}

// crop copies r out of src into a new image with the same coordinates.
func crop(src *image.RGBA, r image.Rectangle) *image.RGBA {
	out := image.NewRGBA(r)
	draw.Draw(out, r, src, r.Min, draw.Src)
	return out
}

func checkRaster(src *image.RGBA, scale float64) error {
	if src == nil {
		return ErrNoRenderContext
	}
	b := src.Bounds()
	if b.Empty() {
		return fmt.Errorf("empty raster: %w", ErrNoRenderContext)
	}
	if b.Dx()*b.Dy() > MaxPixels {
		return fmt.Errorf("raster %dx%d too large: %w", b.Dx(), b.Dy(), ErrNoRenderContext)
	}
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return fmt.Errorf("invalid scale %v", scale)
	}
	return nil
}
