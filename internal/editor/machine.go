// Package editor drives pointer input into draw, select, move and resize
// operations on the regions of one surface.
//
// Step is a pure transition function: it never mutates regions itself but
// returns the store operations the caller must apply. Session wires it to a
// region.Store and a document page.
package editor

import (
	"fmt"
	"strings"

	"github.com/example/blurkit/internal/geometry"
	"github.com/example/blurkit/internal/region"
)

// Mode is the interaction state of the canvas.
type Mode int

const (
	Idle Mode = iota
	Drawing
	Dragging
	Resizing
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Tool selects what a pointer-down on the canvas does.
type Tool int

const (
	ToolRectangle Tool = iota
	ToolCircle
	ToolSelect
)

func (t Tool) String() string {
	switch t {
	case ToolRectangle:
		return "rectangle"
	case ToolCircle:
		return "circle"
	case ToolSelect:
		return "select"
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// ParseTool accepts the names printed by Tool.String plus "rect" and "move".
func ParseTool(s string) (Tool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rectangle", "rect":
		return ToolRectangle, nil
	case "circle":
		return ToolCircle, nil
	case "select", "move":
		return ToolSelect, nil
	}
	return ToolRectangle, fmt.Errorf("unknown tool %q", s)
}

// shape is the region shape a drawing tool produces.
func (t Tool) shape() geometry.Shape {
	if t == ToolCircle {
		return geometry.ShapeCircle
	}
	return geometry.ShapeRectangle
}

// EventKind enumerates pointer events in display coordinates.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	PointerLeave
)

// Event is one pointer event.
type Event struct {
	Kind EventKind
	X, Y float64
}

func (e Event) point() geometry.Point { return geometry.Point{X: e.X, Y: e.Y} }

// State is everything the machine remembers between events.
type State struct {
	Mode     Mode
	Tool     Tool
	Selected string
	// Effect is applied to newly drawn regions.
	Effect region.Effect

	Start   geometry.Point
	Current geometry.Point
	Handle  geometry.Handle
	// Origin is the selected region's box when the drag or resize began.
	Origin geometry.Box
}

// NewState returns an idle state with the default tool and effect.
func NewState() State {
	return State{Tool: ToolRectangle, Effect: region.DefaultEffect()}
}

// Preview returns the in-progress bounds while drawing.
func (s State) Preview() (geometry.Box, bool) {
	if s.Mode != Drawing {
		return geometry.Box{}, false
	}
	return geometry.BoxFrom(s.Start, s.Current), true
}

// ActionKind names a side effect requested by Step.
type ActionKind int

const (
	// ActionAdd commits Action.Region. Its ID is left for the caller to assign.
	ActionAdd ActionKind = iota
	// ActionUpdate replaces the box of region Action.ID with Action.Box.
	ActionUpdate
	// ActionRedraw asks for a full recomposite of the surface.
	ActionRedraw
)

// Action is one side effect of a transition.
type Action struct {
	Kind   ActionKind
	ID     string
	Box    geometry.Box
	Region region.Region
}

// Step applies ev to s over the current paint-ordered regions and returns
// the next state along with the actions to perform, in order. Every state
// change and every in-progress update ends with an ActionRedraw.
func Step(s State, regions []region.Region, ev Event) (State, []Action) {
	p := ev.point()
	switch ev.Kind {
	case PointerDown:
		return down(s, regions, p)
	case PointerMove:
		return move(s, p)
	case PointerUp:
		return up(s)
	case PointerLeave:
		return leave(s)
	}
	return s, nil
}

func down(s State, regions []region.Region, p geometry.Point) (State, []Action) {
	if s.Mode != Idle {
		return s, nil
	}
	redraw := []Action{{Kind: ActionRedraw}}
	if s.Tool != ToolSelect {
		s.Mode = Drawing
		s.Start, s.Current = p, p
		return s, redraw
	}
	if s.Selected != "" {
		for _, r := range regions {
			if r.ID != s.Selected {
				continue
			}
			if h := geometry.HandleAt(p.X, p.Y, r.Box); h != geometry.HandleNone {
				s.Mode = Resizing
				s.Handle = h
				s.Start = p
				s.Origin = r.Box
				return s, redraw
			}
			break
		}
	}
	if idx, ok := region.TopmostAt(regions, p.X, p.Y); ok {
		s.Mode = Dragging
		s.Selected = regions[idx].ID
		s.Start = p
		s.Origin = regions[idx].Box
		return s, redraw
	}
	if s.Selected == "" {
		return s, nil
	}
	s.Selected = ""
	return s, redraw
}

func move(s State, p geometry.Point) (State, []Action) {
	switch s.Mode {
	case Drawing:
		s.Current = p
		return s, []Action{{Kind: ActionRedraw}}
	case Dragging:
		box := s.Origin.Translate(p.X-s.Start.X, p.Y-s.Start.Y)
		return s, []Action{{Kind: ActionUpdate, ID: s.Selected, Box: box}, {Kind: ActionRedraw}}
	case Resizing:
		box := geometry.Resize(s.Origin, s.Handle, p.X-s.Start.X, p.Y-s.Start.Y)
		return s, []Action{{Kind: ActionUpdate, ID: s.Selected, Box: box}, {Kind: ActionRedraw}}
	}
	return s, nil
}

func up(s State) (State, []Action) {
	switch s.Mode {
	case Drawing:
		box := geometry.BoxFrom(s.Start, s.Current)
		s = s.idle()
		if !region.Committable(box) {
			return s, []Action{{Kind: ActionRedraw}}
		}
		r := region.Region{Shape: s.Tool.shape(), Box: box, Effect: s.Effect}
		return s, []Action{{Kind: ActionAdd, Region: r}, {Kind: ActionRedraw}}
	case Dragging, Resizing:
		return s.idle(), []Action{{Kind: ActionRedraw}}
	}
	return s, nil
}

// leave cancels an uncommitted drawing. Updates already applied by a drag
// or resize stay.
func leave(s State) (State, []Action) {
	if s.Mode == Idle {
		return s, nil
	}
	return s.idle(), []Action{{Kind: ActionRedraw}}
}

func (s State) idle() State {
	s.Mode = Idle
	s.Handle = geometry.HandleNone
	s.Start, s.Current = geometry.Point{}, geometry.Point{}
	s.Origin = geometry.Box{}
	return s
}
