package detect

import (
	"image"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/blurkit/internal/geometry"
)

func TestMatchFiltersByPatternAndConfidence(t *testing.T) {
	words := []Word{
		{Text: "alice@example.com", Bounds: image.Rect(10, 10, 120, 24), Confidence: 91},
		{Text: "hello", Bounds: image.Rect(130, 10, 170, 24), Confidence: 95},
		{Text: "bob@example.org", Bounds: image.Rect(10, 40, 110, 54), Confidence: 20},
	}
	re := regexp.MustCompile(`@`)
	got := Match(words, re, Options{MinConfidence: 50, Pad: 2})
	want := []image.Rectangle{image.Rect(8, 8, 122, 26)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestDisplayBoxesScaleAndGrow(t *testing.T) {
	got := DisplayBoxes([]image.Rectangle{
		image.Rect(100, 100, 300, 140),
		image.Rect(10, 10, 14, 30),
	}, 0.5)
	want := []geometry.Box{
		{StartX: 50, StartY: 50, EndX: 150, EndY: 70},
		{StartX: 1, StartY: 5, EndX: 11, EndY: 15},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}
