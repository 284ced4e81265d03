package editor

import (
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/example/blurkit/internal/document"
	"github.com/example/blurkit/internal/effect"
	"github.com/example/blurkit/internal/geometry"
	"github.com/example/blurkit/internal/region"
)

// Session is a single editor over one document. Only the active page has a
// live history; switching pages writes the active regions back to their
// surface and starts a fresh history for the new page.
type Session struct {
	doc   *document.Document
	page  int
	store *region.Store
	state State

	now func() time.Time
	seq int
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock used for region ids.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithTool sets the starting tool.
func WithTool(t Tool) Option {
	return func(s *Session) { s.state.Tool = t }
}

// WithEffect sets the effect given to new regions.
func WithEffect(fx region.Effect) Option {
	return func(s *Session) {
		fx.Intensity = region.ClampIntensity(fx.Intensity)
		s.state.Effect = fx
	}
}

// NewSession opens doc on its first page.
func NewSession(doc *document.Document, opts ...Option) (*Session, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, errors.New("document has no pages")
	}
	s := &Session{doc: doc, state: NewState(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.store = region.NewStore(doc.Pages[0].Regions)
	return s, nil
}

func (s *Session) Document() *document.Document { return s.doc }

// Page is the index of the active page.
func (s *Session) Page() int { return s.page }

func (s *Session) PageCount() int { return len(s.doc.Pages) }

// Surface is the active page.
func (s *Session) Surface() *document.Surface { return s.doc.Pages[s.page] }

func (s *Session) State() State { return s.state }

// Regions returns the active page's regions in paint order.
func (s *Session) Regions() []region.Region { return s.store.Regions() }

// HistoryDepth is the number of snapshots in the active page's history.
func (s *Session) HistoryDepth() int { return s.store.Depth() }

// Selected returns the selected region, if any.
func (s *Session) Selected() (region.Region, bool) {
	if s.state.Selected == "" {
		return region.Region{}, false
	}
	return s.store.Get(s.state.Selected)
}

// NextID returns a fresh region id of the form region-<millis>-<seq>.
func (s *Session) NextID() string {
	id := fmt.Sprintf("region-%d-%d", s.now().UnixMilli(), s.seq)
	s.seq++
	return id
}

// Handle feeds one pointer event through the state machine and applies the
// resulting store operations. It reports whether the surface needs
// recompositing.
func (s *Session) Handle(ev Event) (bool, error) {
	next, actions := Step(s.state, s.store.Regions(), ev)
	s.state = next
	redraw := false
	for _, a := range actions {
		switch a.Kind {
		case ActionAdd:
			r := a.Region
			r.ID = s.NextID()
			if err := s.store.Add(r); err != nil {
				return redraw, err
			}
		case ActionUpdate:
			err := s.store.Update(a.ID, region.Patch{Box: &a.Box})
			if errors.Is(err, region.ErrDegenerate) {
				// A handle dragged onto its opposite edge; keep the last good box.
				log.Printf("skip update of %s: %v", a.ID, err)
				continue
			}
			if err != nil {
				return redraw, err
			}
		case ActionRedraw:
			redraw = true
		}
	}
	s.sync()
	return redraw, nil
}

// SetTool switches tools, abandoning any gesture in progress. Leaving the
// select tool clears the selection.
func (s *Session) SetTool(t Tool) {
	s.state = s.state.idle()
	s.state.Tool = t
	if t != ToolSelect {
		s.state.Selected = ""
	}
}

// SetEffect changes the effect for new regions. When a region is selected
// its effect is replaced too, as one undoable step.
func (s *Session) SetEffect(fx region.Effect) error {
	fx.Intensity = region.ClampIntensity(fx.Intensity)
	s.state.Effect = fx
	if s.state.Selected == "" {
		return nil
	}
	if err := s.store.Update(s.state.Selected, region.Patch{Effect: &fx}); err != nil {
		return err
	}
	s.sync()
	return nil
}

// Add commits a region drawn outside the pointer machine, such as one
// supplied on the command line or found by text detection. Boxes below the
// commit threshold are rejected.
func (s *Session) Add(shape geometry.Shape, box geometry.Box, fx region.Effect) (region.Region, error) {
	if !region.Committable(box) {
		return region.Region{}, fmt.Errorf("%v smaller than %dx%d: %w", box, region.MinSize, region.MinSize, region.ErrDegenerate)
	}
	r := region.Region{ID: s.NextID(), Shape: shape, Box: box, Effect: fx}
	if err := s.store.Add(r); err != nil {
		return region.Region{}, err
	}
	s.sync()
	return r, nil
}

// Delete removes the selected region.
func (s *Session) Delete() bool {
	if s.state.Selected == "" {
		return false
	}
	if err := s.DeleteID(s.state.Selected); err != nil {
		return false
	}
	return true
}

// DeleteID removes region id, clearing the selection if it named id.
func (s *Session) DeleteID(id string) error {
	if err := s.store.Remove(id); err != nil {
		return err
	}
	if s.state.Selected == id {
		s.state.Selected = ""
	}
	s.sync()
	return nil
}

// Clear removes every region on the active page.
func (s *Session) Clear() {
	s.store.Clear()
	s.state.Selected = ""
	s.sync()
}

func (s *Session) Undo() bool {
	ok := s.store.Undo()
	if ok {
		s.state = s.state.idle()
		s.state.Selected = ""
		s.sync()
	}
	return ok
}

func (s *Session) Redo() bool {
	ok := s.store.Redo()
	if ok {
		s.state = s.state.idle()
		s.state.Selected = ""
		s.sync()
	}
	return ok
}

func (s *Session) CanUndo() bool { return s.store.CanUndo() }

func (s *Session) CanRedo() bool { return s.store.CanRedo() }

// SwitchPage makes page i active. The previous page keeps its regions; the
// new page's history starts over from its current regions.
func (s *Session) SwitchPage(i int) error {
	if i < 0 || i >= len(s.doc.Pages) {
		return fmt.Errorf("page %d out of range 1..%d", i+1, len(s.doc.Pages))
	}
	s.sync()
	s.page = i
	s.store.Reset(s.doc.Pages[i].Regions)
	s.state = s.state.idle()
	s.state.Selected = ""
	return nil
}

// Composite renders the active page with every region applied at source
// resolution. The result is what an export of this page would contain.
func (s *Session) Composite() (*image.RGBA, error) {
	surface := s.Surface()
	return effect.Composite(surface.Source, s.store.Regions(), surface.SourceScale())
}

// sync writes the active history state back to its surface.
func (s *Session) sync() {
	s.doc.Pages[s.page].Regions = s.store.Regions()
}
