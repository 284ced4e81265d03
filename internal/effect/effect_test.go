package effect

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/example/blurkit/internal/geometry"
	"github.com/example/blurkit/internal/region"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	black = color.RGBA{A: 255}
)

func filled(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 5), G: uint8(y * 5), B: uint8(x + y), A: 255})
		}
	}
	return img
}

func reg(shape geometry.Shape, kind region.EffectKind, intensity int, x0, y0, x1, y1 float64) region.Region {
	return region.Region{
		ID:     "r",
		Shape:  shape,
		Box:    geometry.Box{StartX: x0, StartY: y0, EndX: x1, EndY: y1},
		Effect: region.Effect{Kind: kind, Intensity: intensity, Color: black},
	}
}

func TestSolidRectangle(t *testing.T) {
	src := filled(100, 100, red)
	out, err := Composite(src, []region.Region{reg(geometry.ShapeRectangle, region.Solid, 10, 10, 10, 50, 50)}, 1)
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			want := red
			if x >= 10 && x < 50 && y >= 10 && y < 50 {
				want = black
			}
			if got := out.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
	if src.RGBAAt(20, 20) != red {
		t.Fatal("source was modified")
	}
}

func TestSolidCircleStaysInsideDisc(t *testing.T) {
	src := filled(100, 100, red)
	out, err := Composite(src, []region.Region{reg(geometry.ShapeCircle, region.Solid, 10, 40, 40, 60, 60)}, 1)
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	if got := out.RGBAAt(50, 50); got != black {
		t.Fatalf("centre = %v, want black", got)
	}
	for _, p := range []image.Point{{0, 0}, {99, 99}, {36, 36}, {64, 64}} {
		if got := out.RGBAAt(p.X, p.Y); got != red {
			t.Fatalf("pixel %v = %v, want red", p, got)
		}
	}
}

func TestSolidTranslucentFillBlends(t *testing.T) {
	half := color.RGBA{R: 128, A: 128} // 50% red, premultiplied
	r := reg(geometry.ShapeRectangle, region.Solid, 10, 0, 0, 10, 10)
	r.Effect.Color = half
	out, err := Composite(filled(10, 10, red), []region.Region{r}, 1)
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	if got := out.RGBAAt(5, 5); got != red {
		t.Fatalf("red over red = %v", got)
	}
	out, err = Composite(filled(10, 10, black), []region.Region{r}, 1)
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	if got := out.RGBAAt(5, 5); got != (color.RGBA{R: 128, A: 255}) {
		t.Fatalf("red over black = %v", got)
	}
}

func TestPixelateSamplesCellTopLeft(t *testing.T) {
	src := gradient(40, 40)
	out, err := Composite(src, []region.Region{reg(geometry.ShapeRectangle, region.Pixelate, 10, 0, 0, 40, 40)}, 1)
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			want := src.RGBAAt(x/10*10, y/10*10)
			if got := out.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestPixelateFractionalCellsSampleOwnCorner(t *testing.T) {
	src := gradient(60, 60)
	// Intensity 5 at scale 2.5 gives 12.5px cells over a 50px box.
	out, err := Composite(src, []region.Region{reg(geometry.ShapeRectangle, region.Pixelate, 5, 0, 0, 20, 20)}, 2.5)
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	edges := []int{0, 13, 25, 38, 50}
	cellStart := func(v int) int {
		for i := len(edges) - 2; i >= 0; i-- {
			if v >= edges[i] {
				return edges[i]
			}
		}
		return 0
	}
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			want := src.RGBAAt(cellStart(x), cellStart(y))
			if got := out.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestPixelateClipsToBox(t *testing.T) {
	src := gradient(40, 40)
	out, err := Composite(src, []region.Region{reg(geometry.ShapeRectangle, region.Pixelate, 12, 5, 5, 20, 20)}, 1)
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	if got, want := out.RGBAAt(25, 25), src.RGBAAt(25, 25); got != want {
		t.Fatalf("outside pixel changed: %v != %v", got, want)
	}
	if got, want := out.RGBAAt(19, 19), src.RGBAAt(17, 17); got != want {
		t.Fatalf("second cell = %v, want sample %v", got, want)
	}
}

func TestGaussianBlursOnlyInsideRectangle(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 60, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			c := black
			if x >= 30 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			src.SetRGBA(x, y, c)
		}
	}
	out, err := Composite(src, []region.Region{reg(geometry.ShapeRectangle, region.Gaussian, 5, 10, 10, 50, 50)}, 1)
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	mid := out.RGBAAt(30, 30)
	if mid.R == 0 || mid.R == 255 {
		t.Fatalf("edge pixel not blurred: %v", mid)
	}
	if got := out.RGBAAt(30, 5); got != src.RGBAAt(30, 5) {
		t.Fatalf("pixel outside the box changed: %v", got)
	}
}

func TestCompositeIsIdempotent(t *testing.T) {
	src := gradient(80, 80)
	regions := []region.Region{
		reg(geometry.ShapeRectangle, region.Gaussian, 8, 5, 5, 40, 40),
		reg(geometry.ShapeCircle, region.Pixelate, 6, 30, 30, 70, 70),
		reg(geometry.ShapeCircle, region.Gaussian, 5, 60, 10, 75, 30),
		reg(geometry.ShapeRectangle, region.Solid, 5, 70, 70, 10, 60),
	}
	a, err := Composite(src, regions, 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Composite(src, regions, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatal("two composites of the same input differ")
	}
}

func TestScaleMapsDisplayToSource(t *testing.T) {
	src := gradient(200, 200)
	display := []region.Region{
		reg(geometry.ShapeRectangle, region.Gaussian, 10, 10, 10, 50, 50),
		reg(geometry.ShapeRectangle, region.Pixelate, 5, 50, 50, 90, 90),
	}
	source := []region.Region{
		reg(geometry.ShapeRectangle, region.Gaussian, 20, 20, 20, 100, 100),
		reg(geometry.ShapeRectangle, region.Pixelate, 10, 100, 100, 180, 180),
	}
	a, err := Composite(src, display, 2)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Composite(src, source, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatal("scaled display regions do not match source-space regions")
	}
}

func TestNoRenderContext(t *testing.T) {
	if _, err := Composite(nil, nil, 1); !errors.Is(err, ErrNoRenderContext) {
		t.Fatalf("nil source err = %v", err)
	}
	if _, err := Composite(image.NewRGBA(image.Rectangle{}), nil, 1); !errors.Is(err, ErrNoRenderContext) {
		t.Fatalf("empty source err = %v", err)
	}
	if err := Apply(nil, gradient(4, 4), reg(geometry.ShapeRectangle, region.Solid, 5, 0, 0, 2, 2), 1); !errors.Is(err, ErrNoRenderContext) {
		t.Fatalf("nil destination err = %v", err)
	}
	if _, err := Composite(gradient(4, 4), nil, 0); err == nil {
		t.Fatal("zero scale accepted")
	}
}

func TestGaussianBlurKeepsBoundsAndFlatAreas(t *testing.T) {
	src := crop(filled(40, 40, red), image.Rect(10, 10, 30, 30))
	out := gaussianBlur(src, 4)
	if out.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", out.Bounds(), src.Bounds())
	}
	for _, p := range []image.Point{{10, 10}, {20, 20}, {29, 29}} {
		if got := out.RGBAAt(p.X, p.Y); got != red {
			t.Fatalf("flat pixel %v = %v", p, got)
		}
	}
	if got := gaussianBlur(src, 0); !bytes.Equal(got.Pix, src.Pix) {
		t.Fatal("zero sigma changed the image")
	}
}

func TestGaussianBlurSpreadsWithSigma(t *testing.T) {
	src := filled(41, 1, black)
	src.SetRGBA(20, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	narrow := gaussianBlur(src, 1)
	wide := gaussianBlur(src, 4)
	if narrow.RGBAAt(20, 0).R <= wide.RGBAAt(20, 0).R {
		t.Fatalf("peak: narrow %v wide %v", narrow.RGBAAt(20, 0), wide.RGBAAt(20, 0))
	}
	if wide.RGBAAt(26, 0).R == 0 {
		t.Fatal("wide blur did not reach 6px from the peak")
	}
}
