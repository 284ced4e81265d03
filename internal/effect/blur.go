package effect

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
)

// gaussianBlur blurs src with a Gaussian of standard deviation sigma. The
// kernel sees only the pixels of src, so callers pad the window they pass
// in. The returned image shares src's bounds.
func gaussianBlur(src *image.RGBA, sigma float64) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(b)
	if sigma <= 0 {
		copy(out.Pix, src.Pix)
		return out
	}
	// imaging returns an NRGBA anchored at the origin.
	blurred := imaging.Blur(src, sigma)
	draw.Draw(out, b, blurred, image.Point{}, draw.Src)
	return out
}
