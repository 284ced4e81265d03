// Package region defines the obscuring annotations drawn over a surface and
// the per-surface store that records every edit as an undoable snapshot.
package region

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/example/blurkit/internal/geometry"
)

// MinSize is the smallest width and height, in display pixels, of a region
// that may be committed. Smaller drags are discarded.
const MinSize = 10

// Intensity limits offered by the editor. The default matches the initial
// slider position.
const (
	MinIntensity     = 5
	MaxIntensity     = 50
	DefaultIntensity = 10
)

// EffectKind selects the pixel transformation applied inside a region.
type EffectKind int

const (
	Gaussian EffectKind = iota
	Pixelate
	Solid
)

var effectNames = []string{"gaussian", "pixelate", "solid"}

func (k EffectKind) String() string {
	if k >= 0 && int(k) < len(effectNames) {
		return effectNames[k]
	}
	return fmt.Sprintf("EffectKind(%d)", int(k))
}

// ParseEffectKind accepts the names from String plus "blur".
func ParseEffectKind(s string) (EffectKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "blur" {
		return Gaussian, nil
	}
	for i, n := range effectNames {
		if n == name {
			return EffectKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown effect %q", s)
}

// Effect is the per-region transformation. Intensity is the blur radius for
// Gaussian and the cell side for Pixelate, both in display pixels. Color is
// only used by Solid.
type Effect struct {
	Kind      EffectKind `json:"kind"`
	Intensity int        `json:"intensity"`
	Color     color.RGBA `json:"color"`
}

// DefaultEffect is the effect new regions start with.
func DefaultEffect() Effect {
	return Effect{Kind: Gaussian, Intensity: DefaultIntensity, Color: color.RGBA{A: 255}}
}

// ClampIntensity limits v to the editor range.
func ClampIntensity(v int) int {
	if v < MinIntensity {
		return MinIntensity
	}
	if v > MaxIntensity {
		return MaxIntensity
	}
	return v
}

// Region is a single obscuring annotation in display-surface coordinates.
type Region struct {
	ID     string         `json:"id"`
	Shape  geometry.Shape `json:"shape"`
	Box    geometry.Box   `json:"box"`
	Effect Effect         `json:"effect"`
}

// Contains reports whether (x, y) falls inside the region's shape.
func (r Region) Contains(x, y float64) bool {
	return geometry.Contains(r.Shape, x, y, r.Box)
}

// Committable reports whether a drawn box is large enough to keep.
func Committable(b geometry.Box) bool {
	return b.Width() >= MinSize && b.Height() >= MinSize
}

// TopmostAt returns the index of the visually topmost region containing
// (x, y). Regions are painted in slice order, so the search runs backwards.
func TopmostAt(regions []Region, x, y float64) (int, bool) {
	for i := len(regions) - 1; i >= 0; i-- {
		if regions[i].Contains(x, y) {
			return i, true
		}
	}
	return -1, false
}

// MarshalText encodes the effect kind by name.
func (k EffectKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a name accepted by ParseEffectKind.
func (k *EffectKind) UnmarshalText(b []byte) error {
	v, err := ParseEffectKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
