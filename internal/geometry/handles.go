package geometry

import "math"

// HandleTolerance is the distance in display pixels within which a pointer
// grabs a resize handle.
const HandleTolerance = 8

// Handle names one of the eight resize grips around a box.
type Handle int

const (
	HandleNone Handle = iota
	HandleNW
	HandleN
	HandleNE
	HandleE
	HandleSE
	HandleS
	HandleSW
	HandleW
)

// Handles lists the grips in hit-test order: corners and edges clockwise from
// the start corner.
var Handles = [8]Handle{HandleNW, HandleN, HandleNE, HandleE, HandleSE, HandleS, HandleSW, HandleW}

var handleNames = map[Handle]string{
	HandleNone: "none",
	HandleNW:   "nw",
	HandleN:    "n",
	HandleNE:   "ne",
	HandleE:    "e",
	HandleSE:   "se",
	HandleS:    "s",
	HandleSW:   "sw",
	HandleW:    "w",
}

func (h Handle) String() string {
	if n, ok := handleNames[h]; ok {
		return n
	}
	return "invalid"
}

// HandlePoint returns the nominal position of h. Positions follow the stored
// Start/End fields: nw sits on (StartX, StartY) and se on (EndX, EndY), so a
// grip always moves the edge it is drawn on even after a box is inverted.
func HandlePoint(b Box, h Handle) Point {
	mx := (b.StartX + b.EndX) / 2
	my := (b.StartY + b.EndY) / 2
	switch h {
	case HandleNW:
		return Point{b.StartX, b.StartY}
	case HandleN:
		return Point{mx, b.StartY}
	case HandleNE:
		return Point{b.EndX, b.StartY}
	case HandleE:
		return Point{b.EndX, my}
	case HandleSE:
		return Point{b.EndX, b.EndY}
	case HandleS:
		return Point{mx, b.EndY}
	case HandleSW:
		return Point{b.StartX, b.EndY}
	case HandleW:
		return Point{b.StartX, my}
	}
	return b.Center()
}

// HandleAt returns the first handle in Handles whose nominal position is
// within HandleTolerance of (x, y) on both axes.
func HandleAt(x, y float64, b Box) Handle {
	for _, h := range Handles {
		p := HandlePoint(b, h)
		if math.Abs(x-p.X) <= HandleTolerance && math.Abs(y-p.Y) <= HandleTolerance {
			return h
		}
	}
	return HandleNone
}

// Resize moves the edges controlled by h by (dx, dy). No minimum size is
// enforced; dragging past the opposite edge inverts the box.
func Resize(b Box, h Handle, dx, dy float64) Box {
	r := b
	switch h {
	case HandleNW:
		r.StartX += dx
		r.StartY += dy
	case HandleN:
		r.StartY += dy
	case HandleNE:
		r.StartY += dy
		r.EndX += dx
	case HandleE:
		r.EndX += dx
	case HandleSE:
		r.EndX += dx
		r.EndY += dy
	case HandleS:
		r.EndY += dy
	case HandleSW:
		r.StartX += dx
		r.EndY += dy
	case HandleW:
		r.StartX += dx
	}
	return r
}
