package appstate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"time"
	"unicode"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/blurkit/internal/clipboard"
	"github.com/example/blurkit/internal/document"
	"github.com/example/blurkit/internal/editor"
	"github.com/example/blurkit/internal/quota"
	"github.com/example/blurkit/internal/region"
)

// Clipboard access; tests replace these.
var (
	readClipboardImage  = clipboard.ReadImage
	writeClipboardImage = clipboard.WriteImage
)

const messageDuration = 2 * time.Second

// controller owns the editor session on the event goroutine and turns
// shiny input into session calls and named actions.
type controller struct {
	app     *AppState
	session *editor.Session
	views   []View

	width, height int
	version       int
	hover         Hover

	message      string
	messageUntil time.Time

	actions        map[string]func()
	keyboardAction map[KeyShortcut]string
	quit           bool
}

func newController(a *AppState) *controller {
	c := &controller{app: a, hover: noHover()}
	c.setSession(a.Session)
	c.registerActions()
	return c
}

func (c *controller) setSession(s *editor.Session) {
	c.session = s
	c.views = make([]View, s.PageCount())
	for i := range c.views {
		c.views[i] = newView()
	}
	c.version++
}

func (c *controller) view() View { return c.views[c.session.Page()] }

func (c *controller) setView(v View) { c.views[c.session.Page()] = v }

// changed marks the composite stale.
func (c *controller) changed() { c.version++ }

func (c *controller) say(msg string) {
	log.Print(msg)
	c.message = msg
	c.messageUntil = time.Now().Add(messageDuration)
	if c.app != nil {
		time.AfterFunc(messageDuration, c.app.NotifyChanged)
	}
}

func (c *controller) register(name string, keys KeyboardShortcuts, fn func()) {
	c.actions[name] = fn
	if keys != nil {
		for _, sc := range keys.KeyboardShortcuts() {
			c.keyboardAction[sc] = name
		}
	}
}

func (c *controller) registerActions() {
	c.actions = map[string]func(){}
	c.keyboardAction = map[KeyShortcut]string{}
	ctrl := key.ModControl

	c.register("tool-rect", shortcutList{{Rune: 'r'}}, func() { c.setTool(editor.ToolRectangle) })
	c.register("tool-circle", shortcutList{{Rune: 'c'}}, func() { c.setTool(editor.ToolCircle) })
	c.register("tool-select", shortcutList{{Rune: 'v'}}, func() { c.setTool(editor.ToolSelect) })
	c.register("effect-gaussian", shortcutList{{Rune: 'b'}}, func() { c.setEffectKind(region.Gaussian) })
	c.register("effect-pixelate", shortcutList{{Rune: 'p'}}, func() { c.setEffectKind(region.Pixelate) })
	c.register("effect-solid", shortcutList{{Rune: 'f'}}, func() { c.setEffectKind(region.Solid) })
	c.register("intensity-down", shortcutList{{Rune: '['}}, func() { c.stepIntensity(-intensityStep) })
	c.register("intensity-up", shortcutList{{Rune: ']'}}, func() { c.stepIntensity(intensityStep) })

	c.register("undo", shortcutList{{Code: key.CodeZ, Modifiers: ctrl}}, func() {
		if c.session.Undo() {
			c.changed()
		}
	})
	c.register("redo", shortcutList{
		{Code: key.CodeY, Modifiers: ctrl},
		{Code: key.CodeZ, Modifiers: ctrl | key.ModShift},
	}, func() {
		if c.session.Redo() {
			c.changed()
		}
	})
	c.register("delete", shortcutList{{Code: key.CodeDeleteForward}, {Code: key.CodeDeleteBackspace}}, func() {
		if c.session.Delete() {
			c.changed()
		}
	})
	c.register("clear", shortcutList{{Code: key.CodeL, Modifiers: ctrl}}, func() {
		if len(c.session.Regions()) == 0 {
			return
		}
		c.session.Clear()
		c.changed()
		c.say("cleared page, ^Z to undo")
	})
	c.register("export", shortcutList{{Code: key.CodeS, Modifiers: ctrl}}, c.export)
	c.register("copy", shortcutList{{Code: key.CodeC, Modifiers: ctrl}}, c.copyPage)
	c.register("paste", shortcutList{{Code: key.CodeV, Modifiers: ctrl}}, c.paste)
	c.register("cancel", shortcutList{{Code: key.CodeEscape}}, func() {
		c.pointerEvent(editor.PointerLeave, 0, 0)
	})

	c.register("zoom-in", shortcutList{{Rune: '+'}, {Rune: '='}}, func() { c.setView(c.view().ZoomIn()) })
	c.register("zoom-out", shortcutList{{Rune: '-'}}, func() { c.setView(c.view().ZoomOut()) })
	c.register("zoom-reset", shortcutList{{Rune: '0'}}, func() { c.setView(newView()) })
	c.register("pan-left", shortcutList{{Code: key.CodeLeftArrow}}, func() { c.setView(c.view().Panned(panStep, 0)) })
	c.register("pan-right", shortcutList{{Code: key.CodeRightArrow}}, func() { c.setView(c.view().Panned(-panStep, 0)) })
	c.register("pan-up", shortcutList{{Code: key.CodeUpArrow}}, func() { c.setView(c.view().Panned(0, panStep)) })
	c.register("pan-down", shortcutList{{Code: key.CodeDownArrow}}, func() { c.setView(c.view().Panned(0, -panStep)) })
	c.register("page-prev", shortcutList{{Code: key.CodePageUp}}, func() { c.switchPage(c.session.Page() - 1) })
	c.register("page-next", shortcutList{{Code: key.CodePageDown}}, func() { c.switchPage(c.session.Page() + 1) })

	c.register("quit", shortcutList{{Rune: 'q'}}, func() { c.quit = true })
}

// run triggers a named action, as a shortcut or button click would.
func (c *controller) run(action string) {
	if fn, ok := c.actions[action]; ok {
		fn()
	}
}

func (c *controller) setTool(t editor.Tool) {
	c.session.SetTool(t)
}

func (c *controller) setEffect(fx region.Effect) {
	if err := c.session.SetEffect(fx); err != nil {
		c.say(fmt.Sprintf("effect: %v", err))
		return
	}
	c.changed()
}

func (c *controller) setEffectKind(k region.EffectKind) {
	fx := c.session.State().Effect
	fx.Kind = k
	c.setEffect(fx)
}

func (c *controller) stepIntensity(delta int) {
	fx := c.session.State().Effect
	fx.Intensity = region.ClampIntensity(fx.Intensity + delta)
	c.setEffect(fx)
}

func (c *controller) switchPage(i int) {
	if i < 0 || i >= c.session.PageCount() || i == c.session.Page() {
		return
	}
	if err := c.session.SwitchPage(i); err != nil {
		log.Printf("switch page: %v", err)
		return
	}
	c.changed()
}

func (c *controller) pointerEvent(kind editor.EventKind, x, y float64) bool {
	redraw, err := c.session.Handle(editor.Event{Kind: kind, X: x, Y: y})
	if err != nil {
		c.say(err.Error())
		return true
	}
	if redraw {
		c.changed()
	}
	return redraw
}

// key handles a key press and reports whether the frame needs repainting.
func (c *controller) key(e key.Event) bool {
	if e.Direction != key.DirPress {
		return false
	}
	action, ok := c.lookup(e)
	if !ok {
		return false
	}
	c.run(action)
	return true
}

// lookup matches code shortcuts with their modifiers first, then runes.
// Shift is ignored for runes since it is what produced them.
func (c *controller) lookup(e key.Event) (string, bool) {
	mods := e.Modifiers & (key.ModControl | key.ModShift | key.ModAlt | key.ModMeta)
	if name, ok := c.keyboardAction[KeyShortcut{Code: e.Code, Modifiers: mods}]; ok {
		return name, true
	}
	if e.Rune <= 0 || mods&(key.ModControl|key.ModAlt|key.ModMeta) != 0 {
		return "", false
	}
	name, ok := c.keyboardAction[KeyShortcut{Rune: unicode.ToLower(e.Rune)}]
	return name, ok
}

// pointer routes a mouse event to the chrome or the canvas and reports
// whether the frame needs repainting.
func (c *controller) pointer(e mouse.Event) bool {
	press := e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress
	if press && c.message != "" && time.Now().Before(c.messageUntil) {
		c.messageUntil = time.Time{}
		return true
	}
	if e.Button == mouse.ButtonWheelUp || e.Button == mouse.ButtonWheelDown {
		return c.wheel(e)
	}

	p := image.Pt(int(e.X), int(e.Y))
	surface := c.session.Surface()
	canvas := c.view().canvasRect(surface.DisplaySize())
	busy := c.session.State().Mode != editor.Idle

	if busy {
		if !p.In(canvas) {
			// Dragging off the canvas ends the gesture like a browser
			// mouseleave would.
			return c.pointerEvent(editor.PointerLeave, 0, 0)
		}
		return c.canvasPointer(e)
	}

	prev := c.hover
	c.hover = noHover()
	switch {
	case p.Y >= c.height-bottomHeight:
		for i, sc := range shortcutLayout(c.app.Theme, c.height, c.view().Zoom, c.run) {
			if p.In(sc.Rect()) {
				c.hover.Shortcut = i
				if press {
					sc.Activate()
					return true
				}
				break
			}
		}
	case p.Y < tabHeight:
		for i, tb := range tabLayout(c.app.Theme, c.titles()) {
			if p.In(tb.Rect()) {
				c.hover.Tab = i
				if press {
					c.switchPage(tb.page)
					return true
				}
				break
			}
		}
	case p.X < toolbarWidth:
		buttons, bottom := toolbarLayout(c.app.Theme, c.run)
		for i, b := range buttons {
			if p.In(b.Rect()) {
				c.hover.Tool = i
				if press {
					b.Activate()
					return true
				}
			}
		}
		for i, r := range swatchRects(bottom) {
			if p.In(r) {
				c.hover.Swatch = i
				if press {
					fx := c.session.State().Effect
					fx.Kind = region.Solid
					fx.Color = palette[i].Color
					c.setEffect(fx)
					return true
				}
			}
		}
	case p.In(canvas):
		return c.canvasPointer(e)
	}
	return c.hover != prev
}

func (c *controller) canvasPointer(e mouse.Event) bool {
	pt := c.view().toDisplay(float64(e.X), float64(e.Y))
	switch {
	case e.Direction == mouse.DirPress && e.Button == mouse.ButtonLeft:
		return c.pointerEvent(editor.PointerDown, pt.X, pt.Y)
	case e.Direction == mouse.DirRelease && e.Button == mouse.ButtonLeft:
		return c.pointerEvent(editor.PointerUp, pt.X, pt.Y)
	case e.Direction == mouse.DirNone:
		return c.pointerEvent(editor.PointerMove, pt.X, pt.Y)
	}
	return false
}

// wheel zooms with control held and pans otherwise.
func (c *controller) wheel(e mouse.Event) bool {
	up := e.Button == mouse.ButtonWheelUp
	v := c.view()
	switch {
	case e.Modifiers&key.ModControl != 0 && up:
		v = v.ZoomIn()
	case e.Modifiers&key.ModControl != 0:
		v = v.ZoomOut()
	case up:
		v = v.Panned(0, panStep)
	default:
		v = v.Panned(0, -panStep)
	}
	c.setView(v)
	return true
}

// leave ends any gesture when the window loses focus.
func (c *controller) leave() bool {
	if c.session.State().Mode == editor.Idle {
		return false
	}
	return c.pointerEvent(editor.PointerLeave, 0, 0)
}

func (c *controller) titles() []string {
	doc := c.session.Document()
	if doc.Kind != document.KindPDF {
		name := doc.Name
		if name == "" {
			name = "image"
		}
		return []string{name}
	}
	out := make([]string, len(doc.Pages))
	for i := range out {
		out[i] = fmt.Sprintf("Page %d", i+1)
	}
	return out
}

func (c *controller) status() string {
	e := c.app.Exporter
	if e == nil || e.Quota == nil {
		return ""
	}
	n, err := e.Quota.Remaining()
	if err != nil {
		return ""
	}
	if n == quota.Unlimited {
		return e.Quota.Tier.String()
	}
	return fmt.Sprintf("%d/%d exports left today", n, quota.FreeDailyLimit)
}

func (c *controller) export() {
	doc := c.session.Document()
	ctx := context.Background()
	var (
		res document.Result
		err error
	)
	if c.app.Output != "" {
		res, err = c.app.Exporter.SaveAs(ctx, doc, c.app.Output)
	} else {
		res, err = c.app.Exporter.Save(ctx, doc, c.app.SaveDir)
	}
	switch {
	case errors.Is(err, quota.ErrQuotaExceeded):
		c.say("Daily free limit reached")
		c.app.Notifier.Quota(0)
		return
	case err != nil:
		c.say(fmt.Sprintf("export failed: %v", err))
		return
	}
	c.say(fmt.Sprintf("exported %s", res.Name))
	var preview image.Image
	if doc.Kind == document.KindPDF {
		if img, err := c.session.Composite(); err == nil {
			preview = img
		}
	}
	c.app.Notifier.Export(res.Path, preview)
	c.app.Notifier.Quota(res.Remaining)
}

func (c *controller) copyPage() {
	img, err := c.app.Exporter.RenderActive(c.session.Document(), c.session.Page())
	if err != nil {
		c.say(fmt.Sprintf("copy failed: %v", err))
		return
	}
	if err := writeClipboardImage(img); err != nil {
		c.say(fmt.Sprintf("copy failed: %v", err))
		return
	}
	detail := "image"
	if c.session.PageCount() > 1 {
		detail = fmt.Sprintf("page %d", c.session.Page()+1)
	}
	c.say(fmt.Sprintf("copied %s to clipboard", detail))
	c.app.Notifier.Copy(detail)
}

// paste replaces the open document with the clipboard image.
func (c *controller) paste() {
	img, err := readClipboardImage()
	if err != nil {
		c.say(fmt.Sprintf("paste failed: %v", err))
		return
	}
	doc, err := document.FromImage("clipboard", img, document.Options{DisplayWidth: document.DefaultDisplayWidth})
	if err != nil {
		c.say(fmt.Sprintf("paste failed: %v", err))
		return
	}
	st := c.session.State()
	s, err := editor.NewSession(doc, editor.WithTool(st.Tool), editor.WithEffect(st.Effect))
	if err != nil {
		c.say(fmt.Sprintf("paste failed: %v", err))
		return
	}
	c.setSession(s)
	c.say("pasted image from clipboard")
}

// paintState snapshots the session for the paint goroutine.
func (c *controller) paintState() PaintState {
	surface := c.session.Surface()
	st := c.session.State()
	preview, previewing := st.Preview()
	return PaintState{
		Width:        c.width,
		Height:       c.height,
		Theme:        c.app.Theme,
		Titles:       c.titles(),
		Current:      c.session.Page(),
		Tool:         st.Tool,
		Effect:       st.Effect,
		Source:       surface.Source,
		SourceScale:  surface.SourceScale(),
		DisplaySize:  surface.DisplaySize(),
		Regions:      c.session.Regions(),
		Version:      c.version,
		Selected:     st.Selected,
		Preview:      preview,
		Previewing:   previewing,
		View:         c.view(),
		Hover:        c.hover,
		Status:       c.status(),
		Message:      c.message,
		MessageUntil: c.messageUntil,
	}
}
