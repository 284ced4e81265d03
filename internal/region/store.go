package region

import (
	"errors"
	"fmt"

	"github.com/example/blurkit/internal/geometry"
)

var (
	// ErrNotFound is returned when an id does not name a stored region.
	ErrNotFound = errors.New("region not found")
	// ErrDuplicateID is returned when adding a region whose id is taken.
	ErrDuplicateID = errors.New("duplicate region id")
	// ErrDegenerate is returned when a region would have zero area.
	ErrDegenerate = errors.New("region has zero area")
)

// Patch names the fields of a region to replace. Nil fields are kept.
type Patch struct {
	Shape  *geometry.Shape
	Box    *geometry.Box
	Effect *Effect
}

// Store is the ordered region list of one surface together with its linear
// undo history. The snapshot at the cursor is always the current list.
type Store struct {
	history [][]Region
	cursor  int
}

// NewStore returns a store whose only snapshot is initial.
func NewStore(initial []Region) *Store {
	s := &Store{}
	s.Reset(initial)
	return s
}

// Reset discards all history and starts again from regions with the cursor
// at zero. It is not undoable.
func (s *Store) Reset(regions []Region) {
	s.history = [][]Region{clone(regions)}
	s.cursor = 0
}

// Regions returns a copy of the current list in paint order.
func (s *Store) Regions() []Region {
	return clone(s.current())
}

// Len is the number of regions in the current list.
func (s *Store) Len() int { return len(s.current()) }

// Get looks up a region by id.
func (s *Store) Get(id string) (Region, bool) {
	for _, r := range s.current() {
		if r.ID == id {
			return r, true
		}
	}
	return Region{}, false
}

// Add appends r on top of the paint order.
func (s *Store) Add(r Region) error {
	if r.ID == "" {
		return fmt.Errorf("add region: empty id")
	}
	if _, ok := s.Get(r.ID); ok {
		return fmt.Errorf("add region %s: %w", r.ID, ErrDuplicateID)
	}
	if r.Box.Empty() {
		return fmt.Errorf("add region %s: %w", r.ID, ErrDegenerate)
	}
	next := append(s.Regions(), r)
	s.push(next)
	return nil
}

// Update replaces the patched fields of the region named id.
func (s *Store) Update(id string, p Patch) error {
	next := s.Regions()
	idx := indexOf(next, id)
	if idx < 0 {
		return fmt.Errorf("update region %s: %w", id, ErrNotFound)
	}
	r := next[idx]
	if p.Shape != nil {
		r.Shape = *p.Shape
	}
	if p.Box != nil {
		r.Box = *p.Box
	}
	if p.Effect != nil {
		r.Effect = *p.Effect
	}
	if r.Box.Empty() {
		return fmt.Errorf("update region %s: %w", id, ErrDegenerate)
	}
	next[idx] = r
	s.push(next)
	return nil
}

// Remove deletes the region named id.
func (s *Store) Remove(id string) error {
	cur := s.current()
	idx := indexOf(cur, id)
	if idx < 0 {
		return fmt.Errorf("remove region %s: %w", id, ErrNotFound)
	}
	next := make([]Region, 0, len(cur)-1)
	next = append(next, cur[:idx]...)
	next = append(next, cur[idx+1:]...)
	s.push(next)
	return nil
}

// Clear removes every region.
func (s *Store) Clear() {
	s.push(nil)
}

// Undo steps the cursor back one snapshot.
func (s *Store) Undo() bool {
	if !s.CanUndo() {
		return false
	}
	s.cursor--
	return true
}

// Redo steps the cursor forward one snapshot.
func (s *Store) Redo() bool {
	if !s.CanRedo() {
		return false
	}
	s.cursor++
	return true
}

// CanUndo reports whether an earlier snapshot exists.
func (s *Store) CanUndo() bool { return s.cursor > 0 }

// CanRedo reports whether a later snapshot exists.
func (s *Store) CanRedo() bool { return s.cursor < len(s.history)-1 }

// Depth is the number of snapshots held.
func (s *Store) Depth() int { return len(s.history) }

// Cursor is the index of the current snapshot.
func (s *Store) Cursor() int { return s.cursor }

func (s *Store) current() []Region {
	if len(s.history) == 0 {
		return nil
	}
	return s.history[s.cursor]
}

// push truncates any redo branch and appends next as the new current state.
func (s *Store) push(next []Region) {
	if len(s.history) == 0 {
		s.Reset(nil)
	}
	s.history = append(s.history[:s.cursor+1], clone(next))
	s.cursor = len(s.history) - 1
}

func indexOf(regions []Region, id string) int {
	for i, r := range regions {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func clone(regions []Region) []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}
