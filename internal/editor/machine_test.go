package editor

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/blurkit/internal/geometry"
	"github.com/example/blurkit/internal/region"
)

func box(x0, y0, x1, y1 float64) geometry.Box {
	return geometry.Box{StartX: x0, StartY: y0, EndX: x1, EndY: y1}
}

func rectRegion(id string, b geometry.Box) region.Region {
	return region.Region{ID: id, Shape: geometry.ShapeRectangle, Box: b, Effect: region.DefaultEffect()}
}

func kinds(actions []Action) []ActionKind {
	var out []ActionKind
	for _, a := range actions {
		out = append(out, a.Kind)
	}
	return out
}

func TestStepDrawCommitsAboveThreshold(t *testing.T) {
	cases := []struct {
		name   string
		end    geometry.Point
		commit bool
	}{
		{"exactly ten", geometry.Point{X: 10, Y: 10}, true},
		{"nine", geometry.Point{X: 9, Y: 9}, false},
		{"wide but short", geometry.Point{X: 80, Y: 9}, false},
		{"reversed drag", geometry.Point{X: -30, Y: -12}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := NewState()
			s, _ = Step(s, nil, Event{Kind: PointerDown})
			if s.Mode != Drawing {
				t.Fatalf("mode = %v, want drawing", s.Mode)
			}
			s, acts := Step(s, nil, Event{Kind: PointerMove, X: c.end.X, Y: c.end.Y})
			if diff := cmp.Diff([]ActionKind{ActionRedraw}, kinds(acts)); diff != "" {
				t.Fatalf("move actions (-want +got):\n%s", diff)
			}
			if p, ok := s.Preview(); !ok || p != geometry.BoxFrom(geometry.Point{}, c.end) {
				t.Fatalf("preview = %v %v", p, ok)
			}
			s, acts = Step(s, nil, Event{Kind: PointerUp, X: c.end.X, Y: c.end.Y})
			if s.Mode != Idle {
				t.Fatalf("mode after up = %v", s.Mode)
			}
			added := len(acts) > 0 && acts[0].Kind == ActionAdd
			if added != c.commit {
				t.Fatalf("committed = %v, want %v", added, c.commit)
			}
			if added && acts[0].Region.Shape != geometry.ShapeRectangle {
				t.Fatalf("shape = %v", acts[0].Region.Shape)
			}
		})
	}
}

func TestStepCircleToolDrawsCircles(t *testing.T) {
	s := NewState()
	s.Tool = ToolCircle
	s.Effect = region.Effect{Kind: region.Pixelate, Intensity: 20}
	s, _ = Step(s, nil, Event{Kind: PointerDown, X: 5, Y: 5})
	s, _ = Step(s, nil, Event{Kind: PointerMove, X: 50, Y: 40})
	_, acts := Step(s, nil, Event{Kind: PointerUp, X: 50, Y: 40})
	if len(acts) == 0 || acts[0].Kind != ActionAdd {
		t.Fatalf("actions = %v", kinds(acts))
	}
	want := region.Region{Shape: geometry.ShapeCircle, Box: box(5, 5, 50, 40), Effect: s.Effect}
	if diff := cmp.Diff(want, acts[0].Region); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestStepLeaveCancelsDrawing(t *testing.T) {
	s := NewState()
	s, _ = Step(s, nil, Event{Kind: PointerDown, X: 0, Y: 0})
	s, _ = Step(s, nil, Event{Kind: PointerMove, X: 40, Y: 40})
	s, acts := Step(s, nil, Event{Kind: PointerLeave, X: 40, Y: 40})
	if s.Mode != Idle {
		t.Fatalf("mode = %v", s.Mode)
	}
	for _, a := range acts {
		if a.Kind == ActionAdd {
			t.Fatal("leave committed a region")
		}
	}
	if _, ok := s.Preview(); ok {
		t.Fatal("preview survived cancel")
	}
}

func TestStepSelectPrefersTopmost(t *testing.T) {
	regions := []region.Region{
		rectRegion("bottom", box(0, 0, 50, 50)),
		rectRegion("top", box(25, 25, 75, 75)),
	}
	s := NewState()
	s.Tool = ToolSelect
	s, _ = Step(s, regions, Event{Kind: PointerDown, X: 30, Y: 30})
	if s.Mode != Dragging || s.Selected != "top" {
		t.Fatalf("mode %v selected %q", s.Mode, s.Selected)
	}
	s, _ = Step(s, regions, Event{Kind: PointerUp, X: 30, Y: 30})
	s, acts := Step(s, regions, Event{Kind: PointerDown, X: 200, Y: 200})
	if s.Selected != "" || s.Mode != Idle {
		t.Fatalf("empty click left selected=%q mode=%v", s.Selected, s.Mode)
	}
	if diff := cmp.Diff([]ActionKind{ActionRedraw}, kinds(acts)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	_, acts = Step(s, regions, Event{Kind: PointerDown, X: 200, Y: 200})
	if len(acts) != 0 {
		t.Fatalf("click on nothing with nothing selected produced %v", kinds(acts))
	}
}

func TestStepDragUsesCumulativeDelta(t *testing.T) {
	regions := []region.Region{rectRegion("a", box(10, 10, 40, 40))}
	s := NewState()
	s.Tool = ToolSelect
	s, _ = Step(s, regions, Event{Kind: PointerDown, X: 20, Y: 20})
	var acts []Action
	for _, p := range []geometry.Point{{X: 25, Y: 21}, {X: 30, Y: 22}, {X: 35, Y: 30}} {
		s, acts = Step(s, regions, Event{Kind: PointerMove, X: p.X, Y: p.Y})
	}
	if acts[0].Kind != ActionUpdate || acts[0].ID != "a" {
		t.Fatalf("actions = %+v", acts)
	}
	if got, want := acts[0].Box, box(25, 20, 55, 50); got != want {
		t.Fatalf("box = %v, want %v", got, want)
	}
}

func TestStepResizeFromHandle(t *testing.T) {
	regions := []region.Region{rectRegion("a", box(10, 10, 60, 60))}
	s := NewState()
	s.Tool = ToolSelect
	s.Selected = "a"
	s, _ = Step(s, regions, Event{Kind: PointerDown, X: 62, Y: 58})
	if s.Mode != Resizing || s.Handle != geometry.HandleSE {
		t.Fatalf("mode %v handle %v", s.Mode, s.Handle)
	}
	_, acts := Step(s, regions, Event{Kind: PointerMove, X: 82, Y: 78})
	if got, want := acts[0].Box, box(10, 10, 80, 80); got != want {
		t.Fatalf("box = %v, want %v", got, want)
	}
}

func TestStepHandlesNeedSelection(t *testing.T) {
	regions := []region.Region{rectRegion("a", box(10, 10, 60, 60))}
	s := NewState()
	s.Tool = ToolSelect
	s, _ = Step(s, regions, Event{Kind: PointerDown, X: 60, Y: 60})
	if s.Mode != Dragging {
		t.Fatalf("mode = %v, want dragging of the unselected region", s.Mode)
	}
}

func TestStepIgnoresDownWhileBusy(t *testing.T) {
	s := NewState()
	s, _ = Step(s, nil, Event{Kind: PointerDown, X: 1, Y: 1})
	next, acts := Step(s, nil, Event{Kind: PointerDown, X: 5, Y: 5})
	if next != s || acts != nil {
		t.Fatal("second pointer-down changed state")
	}
}

func TestParseTool(t *testing.T) {
	for in, want := range map[string]Tool{"rect": ToolRectangle, "Circle": ToolCircle, "select": ToolSelect} {
		got, err := ParseTool(in)
		if err != nil || got != want {
			t.Errorf("ParseTool(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseTool("lasso"); err == nil {
		t.Error("expected error")
	}
}
