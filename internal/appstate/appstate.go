package appstate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"

	"github.com/example/blurkit/internal/editor"
	"github.com/example/blurkit/internal/effect"
	"github.com/example/blurkit/internal/geometry"
	"github.com/example/blurkit/internal/region"
	"github.com/example/blurkit/internal/theme"
)

// ProgramTitle is drawn above the toolbar.
const ProgramTitle = "BlurKit"

const (
	tabHeight    = 24
	tabWidth     = 80
	bottomHeight = 24
	buttonHeight = 24
	swatchSize   = 16
	groupGap     = 4
)

var toolbarWidth = 64

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

const handleSize = 8

// intensityStep is how far one press of [ or ] moves the intensity.
const intensityStep = 5

// PaletteColor is a named fill colour offered for solid regions.
type PaletteColor struct {
	Name  string
	Color color.RGBA
}

var palette = []PaletteColor{
	{"Black", color.RGBA{0, 0, 0, 255}},
	{"White", color.RGBA{255, 255, 255, 255}},
	{"Gray", color.RGBA{128, 128, 128, 255}},
	{"Red", color.RGBA{255, 0, 0, 255}},
	{"Navy", color.RGBA{0, 0, 128, 255}},
	{"Green", color.RGBA{0, 128, 0, 255}},
	{"Yellow", color.RGBA{255, 255, 0, 255}},
	{"Purple", color.RGBA{128, 0, 128, 255}},
}

// Palette returns a copy of the solid fill colours.
func Palette() []PaletteColor {
	out := make([]PaletteColor, len(palette))
	copy(out, palette)
	return out
}

var checkerLight = color.RGBA{220, 220, 220, 255}
var checkerDark = color.RGBA{192, 192, 192, 255}

var (
	messageOnce sync.Once
	messageFace font.Face = basicfont.Face7x13
)

func loadMessageFace() font.Face {
	messageOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			log.Printf("parse font: %v", err)
			return
		}
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: 20, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			log.Printf("font face: %v", err)
			return
		}
		messageFace = face
	})
	return messageFace
}

// drawCheckerboard fills rect of dst with a checkerboard pattern of the given
// colors. size controls the checker square size.
func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				dst.Set(x, y, light)
			} else {
				dst.Set(x, y, dark)
			}
		}
	}
}

// KeyShortcut describes a keyboard combination that triggers an action.
// Either Rune or Code is set, never both.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// shortcutList is a helper to easily satisfy the KeyboardShortcuts interface.
type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// Button represents an interactive UI element.
// Activate performs the button's action when clicked.
type Button interface {
	Draw(dst *image.RGBA, state ButtonState)
	Rect() image.Rectangle
	SetRect(r image.Rectangle)
	Activate()
}

func buttonColor(th *theme.Theme, state ButtonState) color.RGBA {
	switch state {
	case StateHover:
		return mix(th.ButtonBackground, th.ButtonActive)
	case StatePressed:
		return th.ButtonActive
	}
	return th.ButtonBackground
}

func mix(a, b color.RGBA) color.RGBA {
	return color.RGBA{
		uint8((int(a.R) + int(b.R)) / 2),
		uint8((int(a.G) + int(b.G)) / 2),
		uint8((int(a.B) + int(b.B)) / 2),
		uint8((int(a.A) + int(b.A)) / 2),
	}
}

// Shortcut is a clickable hint in the bottom bar.
type Shortcut struct {
	label  string
	action string
	rect   image.Rectangle
	th     *theme.Theme
	run    func(string)
}

func (s *Shortcut) Draw(dst *image.RGBA, state ButtonState) {
	draw.Draw(dst, s.rect, &image.Uniform{buttonColor(s.th, state)}, image.Point{}, draw.Src)
	drawRect(dst, s.rect, s.th.ButtonBorder, 1)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(s.th.ButtonText), Face: basicfont.Face7x13,
		Dot: fixed.P(s.rect.Min.X+2, s.rect.Min.Y+14)}
	d.DrawString(s.label)
}

func (s *Shortcut) Rect() image.Rectangle { return s.rect }

func (s *Shortcut) SetRect(r image.Rectangle) { s.rect = r }

func (s *Shortcut) Activate() {
	if s.run != nil {
		s.run(s.action)
	}
}

// ToolButton is a toolbar entry bound to a named action. Selected buttons
// render pressed.
type ToolButton struct {
	label  string
	action string
	rect   image.Rectangle
	th     *theme.Theme
	run    func(string)
}

func (tb *ToolButton) Draw(dst *image.RGBA, state ButtonState) {
	draw.Draw(dst, tb.rect, &image.Uniform{buttonColor(tb.th, state)}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(tb.th.ButtonText), Face: basicfont.Face7x13,
		Dot: fixed.P(tb.rect.Min.X+4, tb.rect.Min.Y+16)}
	d.DrawString(tb.label)
}

func (tb *ToolButton) Rect() image.Rectangle { return tb.rect }

func (tb *ToolButton) SetRect(r image.Rectangle) { tb.rect = r }

func (tb *ToolButton) Activate() {
	if tb.run != nil {
		tb.run(tb.action)
	}
}

// TabButton draws a page title in the header bar.
type TabButton struct {
	label string
	page  int
	rect  image.Rectangle
	th    *theme.Theme
}

func (tb *TabButton) Draw(dst *image.RGBA, state ButtonState) {
	c := tb.th.TabBackground
	switch state {
	case StateHover:
		c = mix(tb.th.TabBackground, tb.th.TabActive)
	case StatePressed:
		c = tb.th.TabActive
	}
	draw.Draw(dst, tb.rect, &image.Uniform{c}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(tb.th.TabText), Face: basicfont.Face7x13,
		Dot: fixed.P(tb.rect.Min.X+4, tb.rect.Min.Y+16)}
	d.DrawString(tb.label)
}

func (tb *TabButton) Rect() image.Rectangle { return tb.rect }

func (tb *TabButton) SetRect(r image.Rectangle) { tb.rect = r }

func (tb *TabButton) Activate() {}

var _ Button = (*Shortcut)(nil)
var _ Button = (*ToolButton)(nil)
var _ Button = (*TabButton)(nil)

// toolEntry is one row of the toolbar layout.
type toolEntry struct {
	label  string
	action string
	// gapBefore separates groups of related buttons.
	gapBefore bool
}

var toolEntries = []toolEntry{
	{label: "R:Rect", action: "tool-rect"},
	{label: "C:Circle", action: "tool-circle"},
	{label: "V:Select", action: "tool-select"},
	{label: "B:Blur", action: "effect-gaussian", gapBefore: true},
	{label: "P:Pixel", action: "effect-pixelate"},
	{label: "F:Fill", action: "effect-solid"},
	{label: "[:Less", action: "intensity-down", gapBefore: true},
	{label: "]:More", action: "intensity-up"},
}

// toolbarLayout places every toolbar button and returns the y coordinate
// just below the last one.
func toolbarLayout(th *theme.Theme, run func(string)) ([]*ToolButton, int) {
	y := tabHeight
	out := make([]*ToolButton, 0, len(toolEntries))
	for _, e := range toolEntries {
		if e.gapBefore {
			y += groupGap
		}
		out = append(out, &ToolButton{
			label:  e.label,
			action: e.action,
			rect:   image.Rect(0, y, toolbarWidth, y+buttonHeight),
			th:     th,
			run:    run,
		})
		y += buttonHeight
	}
	return out, y
}

// swatchRects places the fill palette under the intensity readout.
func swatchRects(top int) []image.Rectangle {
	y := top + buttonHeight + groupGap
	x := 4
	out := make([]image.Rectangle, 0, len(palette))
	for range palette {
		out = append(out, image.Rect(x, y, x+swatchSize, y+swatchSize))
		x += swatchSize + 2
		if x+swatchSize > toolbarWidth {
			x = 4
			y += swatchSize + 2
		}
	}
	return out
}

func tabLayout(th *theme.Theme, titles []string) []*TabButton {
	out := make([]*TabButton, len(titles))
	for i, t := range titles {
		x := toolbarWidth + i*tabWidth
		out[i] = &TabButton{label: t, page: i, rect: image.Rect(x, 0, x+tabWidth, tabHeight), th: th}
	}
	return out
}

func shortcutLayout(th *theme.Theme, height int, zoom float64, run func(string)) []*Shortcut {
	labels := []struct{ label, action string }{
		{"^Z:undo", "undo"},
		{"^Y:redo", "redo"},
		{"Del:delete", "delete"},
		{"^L:clear", "clear"},
		{"^S:export", "export"},
		{"^C:copy", "copy"},
		{"^V:paste", "paste"},
		{fmt.Sprintf("+/-:zoom (%.0f%%)", zoom*100), "zoom-in"},
		{"Q:quit", "quit"},
	}
	x := toolbarWidth + 4
	y := height - bottomHeight + 16
	meas := &font.Drawer{Face: basicfont.Face7x13}
	out := make([]*Shortcut, 0, len(labels))
	for _, l := range labels {
		w := meas.MeasureString(l.label).Ceil()
		out = append(out, &Shortcut{
			label:  l.label,
			action: l.action,
			rect:   image.Rect(x-2, y-14, x+w+2, y+4),
			th:     th,
			run:    run,
		})
		x += w + 12
	}
	return out
}

// selectedAction reports which toolbar actions render pressed.
func selectedAction(tool editor.Tool, fx region.Effect, action string) bool {
	switch action {
	case "tool-rect":
		return tool == editor.ToolRectangle
	case "tool-circle":
		return tool == editor.ToolCircle
	case "tool-select":
		return tool == editor.ToolSelect
	case "effect-gaussian":
		return fx.Kind == region.Gaussian
	case "effect-pixelate":
		return fx.Kind == region.Pixelate
	case "effect-solid":
		return fx.Kind == region.Solid
	}
	return false
}

func drawTabs(dst *image.RGBA, st PaintState) {
	th := st.Theme
	draw.Draw(dst, image.Rect(0, 0, dst.Bounds().Dx(), tabHeight),
		&image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)

	title := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: basicfont.Face7x13,
		Dot: fixed.P(4, 16)}
	title.DrawString(ProgramTitle)

	for i, tb := range tabLayout(th, st.Titles) {
		state := StateDefault
		if i == st.Current {
			state = StatePressed
		} else if i == st.Hover.Tab {
			state = StateHover
		}
		tb.Draw(dst, state)
	}
}

func drawToolbar(dst *image.RGBA, st PaintState) {
	th := st.Theme
	draw.Draw(dst, image.Rect(0, tabHeight, toolbarWidth, st.Height-bottomHeight),
		&image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	buttons, y := toolbarLayout(th, nil)
	for i, b := range buttons {
		state := StateDefault
		if selectedAction(st.Tool, st.Effect, b.action) {
			state = StatePressed
		} else if i == st.Hover.Tool {
			state = StateHover
		}
		b.Draw(dst, state)
	}

	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: basicfont.Face7x13,
		Dot: fixed.P(4, y+16)}
	d.DrawString(fmt.Sprintf("Str %d", st.Effect.Intensity))

	for i, r := range swatchRects(y) {
		c := palette[i].Color
		draw.Draw(dst, r, &image.Uniform{c}, image.Point{}, draw.Src)
		if i == st.Hover.Swatch {
			draw.Draw(dst, r, &image.Uniform{color.RGBA{255, 255, 255, 80}}, image.Point{}, draw.Over)
		}
		border := th.ButtonBorder
		if st.Effect.Kind == region.Solid && st.Effect.Color == c {
			border = th.Selection
		}
		drawRect(dst, r, border, 1)
	}
}

func drawShortcuts(dst *image.RGBA, st PaintState) {
	th := st.Theme
	rect := image.Rect(0, st.Height-bottomHeight, st.Width, st.Height)
	draw.Draw(dst, rect, &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	for i, sc := range shortcutLayout(th, st.Height, st.View.Zoom, nil) {
		state := StateDefault
		if i == st.Hover.Shortcut {
			state = StateHover
		}
		sc.Draw(dst, state)
	}
	if st.Status != "" {
		d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: basicfont.Face7x13}
		w := d.MeasureString(st.Status).Ceil()
		d.Dot = fixed.P(st.Width-w-6, st.Height-bottomHeight+16)
		d.DrawString(st.Status)
	}
}

func setThickPixel(img *image.RGBA, x, y, thick int, col color.Color) {
	r := thick / 2
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			px := x + dx
			py := y + dy
			if image.Pt(px, py).In(img.Bounds()) {
				img.Set(px, py, col)
			}
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.Color, thick int) {
	dx := math.Abs(float64(x1 - x0))
	dy := math.Abs(float64(y1 - y0))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		setThickPixel(img, x0, y0, thick, col)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// drawEllipse outlines the ellipse inscribed in rect. When dash is positive
// the outline alternates between c1 and c2 every dash steps.
func drawEllipse(img *image.RGBA, rect image.Rectangle, c1, c2 color.Color, thick, dash int) {
	cx := float64(rect.Min.X+rect.Max.X) / 2
	cy := float64(rect.Min.Y+rect.Max.Y) / 2
	rx := float64(rect.Dx()) / 2
	ry := float64(rect.Dy()) / 2
	steps := int(math.Ceil(2 * math.Pi * math.Max(rx, ry)))
	if steps < 8 {
		steps = 8
	}
	prev := image.Pt(int(cx+rx), int(cy))
	for i := 1; i <= steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		p := image.Pt(int(math.Round(cx+math.Cos(a)*rx)), int(math.Round(cy+math.Sin(a)*ry)))
		col := c1
		if dash > 0 && (i/dash)%2 == 1 {
			col = c2
		}
		drawLine(img, prev.X, prev.Y, p.X, p.Y, col, thick)
		prev = p
	}
}

func drawDashedLine(img *image.RGBA, x0, y0, x1, y1, dash, thickness int, c1, c2 color.Color) {
	horiz := y0 == y1
	length := x1 - x0
	if !horiz {
		length = y1 - y0
	}
	step := 1
	if length < 0 {
		length = -length
		step = -1
	}
	for i := 0; i <= length; i++ {
		col := c1
		if (i/dash)%2 == 1 {
			col = c2
		}
		for t := 0; t < thickness; t++ {
			if horiz {
				img.Set(x0+i*step, y0+t, col)
			} else {
				img.Set(x0+t, y0+i*step, col)
			}
		}
	}
}

func drawDashedRect(img *image.RGBA, rect image.Rectangle, dash, thickness int, c1, c2 color.Color) {
	drawDashedLine(img, rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y, dash, thickness, c1, c2)
	drawDashedLine(img, rect.Max.X, rect.Min.Y, rect.Max.X, rect.Max.Y, dash, thickness, c1, c2)
	drawDashedLine(img, rect.Max.X, rect.Max.Y, rect.Min.X, rect.Max.Y, dash, thickness, c1, c2)
	drawDashedLine(img, rect.Min.X, rect.Max.Y, rect.Min.X, rect.Min.Y, dash, thickness, c1, c2)
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	drawLine(img, rect.Min.X, rect.Min.Y, rect.Max.X-1, rect.Min.Y, col, thick)
	drawLine(img, rect.Max.X-1, rect.Min.Y, rect.Max.X-1, rect.Max.Y-1, col, thick)
	drawLine(img, rect.Max.X-1, rect.Max.Y-1, rect.Min.X, rect.Max.Y-1, col, thick)
	drawLine(img, rect.Min.X, rect.Max.Y-1, rect.Min.X, rect.Min.Y, col, thick)
}

// handleRects returns the eight resize grips of b on screen, in
// geometry.Handles order.
func handleRects(v View, b geometry.Box) []image.Rectangle {
	hs := handleSize / 2
	out := make([]image.Rectangle, 0, len(geometry.Handles))
	for _, h := range geometry.Handles {
		p := v.toScreen(geometry.HandlePoint(b, h))
		out = append(out, image.Rect(p.X-hs, p.Y-hs, p.X+hs, p.Y+hs))
	}
	return out
}

// Hover records which chrome element is under the pointer; -1 for none.
type Hover struct {
	Tab, Tool, Swatch, Shortcut int
}

func noHover() Hover { return Hover{Tab: -1, Tool: -1, Swatch: -1, Shortcut: -1} }

// PaintState is an immutable snapshot of everything a frame shows. The
// event loop builds one per paint and hands it to the paint goroutine.
type PaintState struct {
	Width, Height int
	Theme         *theme.Theme

	Titles  []string
	Current int

	Tool   editor.Tool
	Effect region.Effect

	Source      *image.RGBA
	SourceScale float64
	DisplaySize image.Point
	Regions     []region.Region
	// Version changes whenever Source or Regions do, so the composite can
	// be reused between frames.
	Version int

	Selected   string
	Preview    geometry.Box
	Previewing bool
	View       View
	Hover      Hover

	Status       string
	Message      string
	MessageUntil time.Time
}

var composites struct {
	sync.Mutex
	src     *image.RGBA
	version int
	img     *image.RGBA
}

// compositeFor returns the recomposited page, reusing the last result when
// nothing changed.
func compositeFor(st PaintState) (*image.RGBA, error) {
	composites.Lock()
	defer composites.Unlock()
	if composites.img != nil && composites.src == st.Source && composites.version == st.Version {
		return composites.img, nil
	}
	img, err := effect.Composite(st.Source, st.Regions, st.SourceScale)
	if err != nil {
		return nil, err
	}
	composites.src, composites.version, composites.img = st.Source, st.Version, img
	return img, nil
}

func cancelled(ctx context.Context) bool {
	return ctx != nil && ctx.Err() != nil
}

// DrawScene renders one frame of the editor into dst. It returns early,
// leaving dst partly drawn, when ctx is cancelled.
func DrawScene(ctx context.Context, dst *image.RGBA, st PaintState) {
	if st.Theme == nil {
		st.Theme = theme.Default()
	}
	if st.View.Zoom == 0 {
		st.View = newView()
	}
	th := st.Theme
	draw.Draw(dst, dst.Bounds(), &image.Uniform{th.Background}, image.Point{}, draw.Src)

	canvas := st.View.canvasRect(st.DisplaySize)
	message := st.Message
	if st.Source != nil {
		drawCheckerboard(dst, canvas.Intersect(dst.Bounds()), 8, checkerLight, checkerDark)
		img, err := compositeFor(st)
		if err != nil {
			log.Printf("composite: %v", err)
			message = err.Error()
			st.MessageUntil = time.Now().Add(time.Second)
		} else {
			xdraw.ApproxBiLinear.Scale(dst, canvas, img, img.Bounds(), draw.Over, nil)
		}
	}
	if cancelled(ctx) {
		return
	}

	drawOverlays(dst, st)
	if cancelled(ctx) {
		return
	}

	drawTabs(dst, st)
	drawToolbar(dst, st)
	drawShortcuts(dst, st)
	if cancelled(ctx) {
		return
	}

	if message != "" && time.Now().Before(st.MessageUntil) {
		drawMessage(dst, th, message)
	}
}

// drawOverlays draws the outlines that are never part of an export: the
// dashed preview of a region being drawn, and the selected region with its
// grips.
func drawOverlays(dst *image.RGBA, st PaintState) {
	th := st.Theme
	if st.Tool == editor.ToolSelect {
		for _, r := range st.Regions {
			if r.ID == st.Selected {
				continue
			}
			if r.Shape == geometry.ShapeCircle {
				drawEllipse(dst, st.View.circleToScreen(r.Box), th.RegionOutline, th.RegionOutline, 1, 0)
			} else {
				drawRect(dst, st.View.boxToScreen(r.Box), th.RegionOutline, 1)
			}
		}
	}
	if st.Previewing {
		if st.Tool == editor.ToolCircle {
			drawEllipse(dst, st.View.circleToScreen(st.Preview), th.Preview, color.White, 2, 4)
		} else {
			drawDashedRect(dst, st.View.boxToScreen(st.Preview), 4, 2, th.Preview, color.White)
		}
	}
	for _, r := range st.Regions {
		if r.ID != st.Selected {
			continue
		}
		rect := st.View.boxToScreen(r.Box)
		if r.Shape == geometry.ShapeCircle {
			drawEllipse(dst, st.View.circleToScreen(r.Box), th.Selection, th.Selection, 2, 0)
			drawDashedRect(dst, rect, 2, 1, th.Selection, th.Handle)
		} else {
			drawRect(dst, rect, th.Selection, 2)
		}
		for _, hr := range handleRects(st.View, r.Box) {
			draw.Draw(dst, hr, &image.Uniform{th.Handle}, image.Point{}, draw.Src)
			drawRect(dst, hr, th.HandleBorder, 1)
		}
	}
}

func drawMessage(dst *image.RGBA, th *theme.Theme, msg string) {
	face := loadMessageFace()
	b := dst.Bounds()
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: face}
	wmsg := d.MeasureString(msg).Ceil()
	ascent := face.Metrics().Ascent.Ceil()
	descent := face.Metrics().Descent.Ceil()
	px := (b.Dx() - wmsg) / 2
	py := (b.Dy()-ascent-descent)/2 + ascent
	rect := image.Rect(px-8, py-ascent-8, px+wmsg+8, py+descent+8)
	bg := color.NRGBA{R: th.Background.R, G: th.Background.G, B: th.Background.B, A: 230}
	draw.Draw(dst, rect, &image.Uniform{bg}, image.Point{}, draw.Over)
	drawRect(dst, rect, th.Foreground, 2)
	d.Dot = fixed.P(px, py)
	d.DrawString(msg)
}
