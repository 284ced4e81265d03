// Package watermark stamps the free-tier caption onto exported rasters.
package watermark

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/blurkit/internal/quota"
)

// Text is the caption drawn on free-tier exports.
const Text = "BlurKit - Upgrade to remove watermark"

const (
	minFontSize  = 12
	padding      = 8
	bottomMargin = 10
)

var (
	boxColor  = color.NRGBA{R: 255, G: 255, B: 255, A: 179}
	textColor = color.NRGBA{A: 153}
)

var (
	fontOnce sync.Once
	regular  *opentype.Font
	fontErr  error
	faces    sync.Map // map[int]font.Face
)

func faceForSize(size int) (font.Face, error) {
	fontOnce.Do(func() {
		regular, fontErr = opentype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("parse font: %w", fontErr)
	}
	if face, ok := faces.Load(size); ok {
		return face.(font.Face), nil
	}
	face, err := opentype.NewFace(regular, &opentype.FaceOptions{Size: float64(size), DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, err
	}
	faces.Store(size, face)
	return face, nil
}

// ShouldWatermark reports whether exports for tier carry the caption.
func ShouldWatermark(tier quota.Tier) bool { return !tier.Unlimited() }

// FontSize is the caption size for an image width pixels wide.
func FontSize(width int) int { return max(minFontSize, width/40) }

// Stamp draws the caption centred along the bottom edge of img: a
// translucent white box with translucent black text on top.
func Stamp(img *image.RGBA) error {
	b := img.Bounds()
	size := FontSize(b.Dx())
	face, err := faceForSize(size)
	if err != nil {
		return err
	}
	d := &font.Drawer{Dst: img, Src: image.NewUniform(textColor), Face: face}
	width := d.MeasureString(Text).Ceil()
	cx := b.Min.X + b.Dx()/2
	baseline := b.Max.Y - bottomMargin

	box := image.Rect(
		cx-width/2-padding, baseline-size-padding,
		cx+width/2+padding, baseline+padding,
	)
	draw.Draw(img, box.Intersect(b), image.NewUniform(boxColor), image.Point{}, draw.Over)

	// baseline marks the bottom of the text box; glyphs sit one descent above it.
	d.Dot = fixed.P(cx-width/2, baseline-face.Metrics().Descent.Ceil())
	d.DrawString(Text)
	return nil
}
