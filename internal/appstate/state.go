package appstate

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/blurkit/internal/document"
	"github.com/example/blurkit/internal/editor"
	"github.com/example/blurkit/internal/notify"
	"github.com/example/blurkit/internal/theme"
)

// ErrNoSession is returned by Run when no document was opened.
var ErrNoSession = errors.New("appstate: no document to edit")

// AppState holds application configuration for the UI.
type AppState struct {
	Session  *editor.Session
	Exporter *document.Exporter
	Notifier *notify.Notifier
	Theme    *theme.Theme
	// SaveDir receives timestamped exports when Output is empty.
	SaveDir string
	Output  string

	updateCh chan struct{}

	onClose   func()
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

func WithSession(s *editor.Session) Option { return func(a *AppState) { a.Session = s } }

func WithExporter(e *document.Exporter) Option { return func(a *AppState) { a.Exporter = e } }

func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.Notifier = n } }

func WithTheme(t *theme.Theme) Option { return func(a *AppState) { a.Theme = t } }

// WithSaveDir sets the directory exports land in.
func WithSaveDir(dir string) Option { return func(a *AppState) { a.SaveDir = dir } }

// WithOutput sets a fixed export path.
func WithOutput(out string) Option { return func(a *AppState) { a.Output = out } }

// WithOnClose registers a callback invoked once when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState. Without a theme the default one is used, and
// without an exporter exports are unlimited.
func New(opts ...Option) *AppState {
	a := &AppState{updateCh: make(chan struct{}, 1)}
	for _, o := range opts {
		o(a)
	}
	if a.Theme == nil {
		a.Theme = theme.Default()
	}
	if a.Exporter == nil {
		a.Exporter = document.NewExporter(nil)
	}
	if a.SaveDir == "" {
		a.SaveDir = "."
	}
	return a
}

// NotifyChanged requests a repaint of the UI.
func (a *AppState) NotifyChanged() {
	if a.updateCh == nil {
		return
	}
	select {
	case a.updateCh <- struct{}{}:
	default:
	}
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() error {
	if a.Session == nil {
		return ErrNoSession
	}
	driver.Main(a.Main)
	return nil
}

// fitToolbar widens the toolbar so the title and every label fit.
func fitToolbar() {
	d := &font.Drawer{Face: basicfont.Face7x13}
	widest := d.MeasureString(ProgramTitle).Ceil() + 8
	for _, e := range toolEntries {
		if w := d.MeasureString(e.label).Ceil() + 8; w > widest {
			widest = w
		}
	}
	if widest > toolbarWidth {
		toolbarWidth = widest
	}
}

func (a *AppState) Main(s screen.Screen) {
	fitToolbar()
	c := newController(a)

	sz := a.Session.Surface().DisplaySize()
	c.width = max(sz.X+toolbarWidth, 640)
	c.height = sz.Y + tabHeight + bottomHeight
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: c.width, Height: c.height, Title: ProgramTitle})
	if err != nil {
		log.Printf("new window: %v", err)
		return
	}
	defer w.Release()
	defer a.notifyClose()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-a.updateCh:
				w.Send(paint.Event{})
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan PaintState, 1)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()
	defer close(paintCh)

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				paintMu.Lock()
				if paintCancel != nil {
					paintCancel()
				}
				paintMu.Unlock()
				return
			}
			if e.Crosses(lifecycle.StageFocused) == lifecycle.CrossOff && c.leave() {
				w.Send(paint.Event{})
			}
		case size.Event:
			c.width = e.WidthPx
			c.height = e.HeightPx
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := c.paintState()
			select {
			case paintCh <- st:
			default:
				<-paintCh
				paintCh <- st
			}
		case mouse.Event:
			if c.pointer(e) {
				w.Send(paint.Event{})
			}
		case key.Event:
			if c.key(e) {
				w.Send(paint.Event{})
			}
			if c.quit {
				return
			}
		case error:
			log.Printf("window: %v", e)
		}
	}
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st PaintState) {
	b, err := s.NewBuffer(image.Point{st.Width, st.Height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()

	DrawScene(ctx, b.RGBA(), st)
	if ctx.Err() != nil {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}
