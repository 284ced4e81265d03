package quota

import (
	"fmt"
	"time"
)

// Tracker binds a tier to a persisted counter and a clock.
type Tracker struct {
	Tier  Tier
	Store Store
	Now   func() time.Time
}

// NewTracker returns a tracker using the wall clock.
func NewTracker(tier Tier, store Store) *Tracker {
	return &Tracker{Tier: tier, Store: store, Now: time.Now}
}

func (t *Tracker) today() string {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	return DateKey(now())
}

// Stats returns the counter as of today.
func (t *Tracker) Stats() (Stats, error) {
	s, err := t.Store.Load()
	if err != nil {
		return Stats{}, fmt.Errorf("load usage: %w", err)
	}
	return Current(s, t.today()), nil
}

// Remaining is how many exports are left today, or Unlimited.
func (t *Tracker) Remaining() (int, error) {
	s, err := t.Stats()
	if err != nil {
		return 0, err
	}
	return Remaining(t.Tier, s, t.today()), nil
}

// Check returns ErrQuotaExceeded when no export is permitted today.
func (t *Tracker) Check() error {
	s, err := t.Stats()
	if err != nil {
		return err
	}
	if !Allowed(t.Tier, s, t.today()) {
		return ErrQuotaExceeded
	}
	return nil
}

// Record counts one export against today.
func (t *Tracker) Record() (Stats, error) {
	s, err := t.Stats()
	if err != nil {
		return Stats{}, err
	}
	s.BlursToday++
	if err := t.Store.Save(s); err != nil {
		return Stats{}, fmt.Errorf("save usage: %w", err)
	}
	return s, nil
}
