// Package theme holds the colour palette of the desktop editor.
package theme

import (
	"image/color"
	"sort"
	"strings"
)

// Theme defines the color palette for the editor UI.
type Theme struct {
	Name string

	// General
	Background color.RGBA // Window background around the page
	Foreground color.RGBA // Status and message text

	// Toolbar & page tabs
	ToolbarBackground color.RGBA
	TabBackground     color.RGBA // Inactive page tab
	TabActive         color.RGBA
	TabText           color.RGBA

	// Tool buttons
	ButtonBackground color.RGBA
	ButtonActive     color.RGBA // Selected tool or effect
	ButtonText       color.RGBA
	ButtonBorder     color.RGBA

	// Canvas overlays, never exported
	RegionOutline color.RGBA
	Selection     color.RGBA
	Handle        color.RGBA
	HandleBorder  color.RGBA
	Preview       color.RGBA // Dashed outline while drawing
}

// Default returns the hardcoded default light theme (fallback).
func Default() *Theme {
	return &Theme{
		Name:              "Default",
		Background:        color.RGBA{220, 220, 220, 255},
		Foreground:        color.RGBA{0, 0, 0, 255},
		ToolbarBackground: color.RGBA{220, 220, 220, 255},
		TabBackground:     color.RGBA{220, 220, 220, 255},
		TabActive:         color.RGBA{200, 200, 200, 255},
		TabText:           color.RGBA{0, 0, 0, 255},
		ButtonBackground:  color.RGBA{200, 200, 200, 255},
		ButtonActive:      color.RGBA{150, 150, 150, 255},
		ButtonText:        color.RGBA{0, 0, 0, 255},
		ButtonBorder:      color.RGBA{0, 0, 0, 255},
		RegionOutline:     color.RGBA{59, 130, 246, 255},
		Selection:         color.RGBA{59, 130, 246, 255},
		Handle:            color.RGBA{255, 255, 255, 255},
		HandleBorder:      color.RGBA{59, 130, 246, 255},
		Preview:           color.RGBA{59, 130, 246, 255},
	}
}

// Dark is the built-in dark palette.
func Dark() *Theme {
	t := Default()
	t.Name = "Dark"
	t.Background = color.RGBA{30, 30, 34, 255}
	t.Foreground = color.RGBA{230, 230, 230, 255}
	t.ToolbarBackground = color.RGBA{40, 40, 46, 255}
	t.TabBackground = color.RGBA{40, 40, 46, 255}
	t.TabActive = color.RGBA{64, 64, 72, 255}
	t.TabText = color.RGBA{230, 230, 230, 255}
	t.ButtonBackground = color.RGBA{56, 56, 64, 255}
	t.ButtonActive = color.RGBA{96, 96, 110, 255}
	t.ButtonText = color.RGBA{230, 230, 230, 255}
	t.ButtonBorder = color.RGBA{120, 120, 130, 255}
	t.Handle = color.RGBA{30, 30, 34, 255}
	return t
}

var builtin = map[string]func() *Theme{
	"default": Default,
	"light":   Default,
	"dark":    Dark,
}

// Builtin returns the named built-in theme.
func Builtin(name string) (*Theme, bool) {
	f, ok := builtin[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return f(), true
}

// BuiltinNames lists the built-in theme names.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
