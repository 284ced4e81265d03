package watermark

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/example/blurkit/internal/quota"
)

func TestShouldWatermark(t *testing.T) {
	cases := map[quota.Tier]bool{quota.Free: true, quota.Premium: false, quota.Lifetime: false}
	for tier, want := range cases {
		if got := ShouldWatermark(tier); got != want {
			t.Errorf("ShouldWatermark(%v) = %v, want %v", tier, got, want)
		}
	}
}

func TestFontSize(t *testing.T) {
	if got := FontSize(100); got != 12 {
		t.Errorf("FontSize(100) = %d, want 12", got)
	}
	if got := FontSize(1600); got != 40 {
		t.Errorf("FontSize(1600) = %d, want 40", got)
	}
}

func TestStampTouchesOnlyBottomCentre(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 800, 400))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 200, A: 255}), image.Point{}, draw.Src)
	if err := Stamp(img); err != nil {
		t.Fatalf("stamp: %v", err)
	}
	if got := img.RGBAAt(400, 10); got != (color.RGBA{R: 200, A: 255}) {
		t.Fatalf("top pixel changed to %v", got)
	}
	if got := img.RGBAAt(5, 395); got != (color.RGBA{R: 200, A: 255}) {
		t.Fatalf("bottom-left corner changed to %v", got)
	}
	changed := false
	for x := 300; x < 500 && !changed; x++ {
		if img.RGBAAt(x, 385) != (color.RGBA{R: 200, A: 255}) {
			changed = true
		}
	}
	if !changed {
		t.Fatal("no caption box near the bottom centre")
	}
}
