package geometry

import (
	"image"
	"math"
	"testing"
)

func TestPointInRectangleSymmetricUnderSwap(t *testing.T) {
	boxes := []Box{
		{StartX: 10, StartY: 10, EndX: 50, EndY: 40},
		{StartX: 50, StartY: 40, EndX: 10, EndY: 10},
		{StartX: -5, StartY: 3, EndX: 7.5, EndY: -2},
	}
	for _, b := range boxes {
		swapped := Box{StartX: b.EndX, StartY: b.EndY, EndX: b.StartX, EndY: b.StartY}
		for y := -10.0; y <= 60; y += 0.5 {
			for x := -10.0; x <= 60; x += 0.5 {
				if PointInRectangle(x, y, b) != PointInRectangle(x, y, swapped) {
					t.Fatalf("box %+v: containment of (%v,%v) depends on endpoint order", b, x, y)
				}
			}
		}
	}
}

func TestPointInRectangleInclusive(t *testing.T) {
	b := Box{StartX: 10, StartY: 10, EndX: 20, EndY: 20}
	for _, p := range []Point{{10, 10}, {20, 20}, {10, 20}, {15, 15}} {
		if !PointInRectangle(p.X, p.Y, b) {
			t.Errorf("expected %+v inside", p)
		}
	}
	for _, p := range []Point{{9.99, 10}, {20.01, 15}, {15, 21}} {
		if PointInRectangle(p.X, p.Y, b) {
			t.Errorf("expected %+v outside", p)
		}
	}
}

func TestPointInCircleRadiusIsHalfDiagonal(t *testing.T) {
	boxes := []Box{
		{StartX: 0, StartY: 0, EndX: 30, EndY: 40},
		{StartX: 100, StartY: 20, EndX: 40, EndY: 90},
		{StartX: 5, StartY: 5, EndX: 15, EndY: 15},
	}
	const eps = 1e-6
	for _, b := range boxes {
		cx, cy, r := CircleOf(b)
		want := math.Hypot(b.EndX-b.StartX, b.EndY-b.StartY) / 2
		if math.Abs(r-want) > eps {
			t.Fatalf("radius %v, want %v", r, want)
		}
		if !PointInCircle(cx, cy, b) {
			t.Errorf("centre of %+v not inside", b)
		}
		if PointInCircle(cx+r+eps, cy, b) {
			t.Errorf("point just past radius of %+v reported inside", b)
		}
		// A box corner lies on the circle, not outside it.
		if !PointInCircle(b.StartX, b.StartY, b) {
			t.Errorf("corner of %+v should be on the circle", b)
		}
	}
}

func TestHandleAtTolerance(t *testing.T) {
	b := Box{StartX: 100, StartY: 100, EndX: 200, EndY: 160}
	tests := []struct {
		x, y float64
		want Handle
	}{
		{100, 100, HandleNW},
		{150, 100, HandleN},
		{200, 100, HandleNE},
		{200, 130, HandleE},
		{200, 160, HandleSE},
		{150, 160, HandleS},
		{100, 160, HandleSW},
		{100, 130, HandleW},
		{208, 168, HandleSE},
		{209, 160, HandleNone},
		{150, 130, HandleNone},
	}
	for _, tc := range tests {
		if got := HandleAt(tc.x, tc.y, b); got != tc.want {
			t.Errorf("HandleAt(%v,%v) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestHandleAtFirstMatchWins(t *testing.T) {
	// In a tiny box every grip overlaps; the order in Handles decides.
	b := Box{StartX: 0, StartY: 0, EndX: 4, EndY: 4}
	if got := HandleAt(2, 2, b); got != HandleNW {
		t.Fatalf("got %v, want nw", got)
	}
}

func TestResizeMovesOnlyItsEdges(t *testing.T) {
	b := Box{StartX: 10, StartY: 20, EndX: 110, EndY: 220}
	tests := []struct {
		h    Handle
		want Box
	}{
		{HandleNW, Box{15, 27, 110, 220}},
		{HandleN, Box{10, 27, 110, 220}},
		{HandleNE, Box{10, 27, 115, 220}},
		{HandleE, Box{10, 20, 115, 220}},
		{HandleSE, Box{10, 20, 115, 227}},
		{HandleS, Box{10, 20, 110, 227}},
		{HandleSW, Box{15, 20, 110, 227}},
		{HandleW, Box{15, 20, 110, 220}},
		{HandleNone, b},
	}
	for _, tc := range tests {
		if got := Resize(b, tc.h, 5, 7); got != tc.want {
			t.Errorf("Resize(%v) = %+v, want %+v", tc.h, got, tc.want)
		}
	}
}

func TestResizePastOppositeEdgeInverts(t *testing.T) {
	b := Box{StartX: 0, StartY: 0, EndX: 20, EndY: 20}
	got := Resize(b, HandleE, -30, 0)
	if got.EndX != -10 {
		t.Fatalf("EndX = %v, want -10", got.EndX)
	}
	minX, _, maxX, _ := got.Normalize()
	if minX != -10 || maxX != 0 {
		t.Fatalf("normalized x range [%v,%v], want [-10,0]", minX, maxX)
	}
}

func TestRectRounds(t *testing.T) {
	b := Box{StartX: 50.4, StartY: 50.6, EndX: 10.2, EndY: 9.5}
	want := image.Rect(10, 10, 50, 51)
	if got := b.Rect(); got != want {
		t.Fatalf("Rect() = %v, want %v", got, want)
	}
}

func TestParseShape(t *testing.T) {
	for in, want := range map[string]Shape{"rect": ShapeRectangle, "Rectangle": ShapeRectangle, " circle ": ShapeCircle} {
		got, err := ParseShape(in)
		if err != nil || got != want {
			t.Errorf("ParseShape(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseShape("triangle"); err == nil {
		t.Error("expected error for unknown shape")
	}
}
