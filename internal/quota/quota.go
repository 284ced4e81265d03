// Package quota answers whether another export is permitted today for a
// user tier, backed by a daily counter that resets when the local calendar
// date changes.
package quota

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Tier is the user's entitlement level.
type Tier int

const (
	Free Tier = iota
	Premium
	Lifetime
)

func (t Tier) String() string {
	switch t {
	case Premium:
		return "premium"
	case Lifetime:
		return "lifetime"
	}
	return "free"
}

// ParseTier accepts the names printed by Tier.String. An empty string is Free.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "free":
		return Free, nil
	case "premium", "pro":
		return Premium, nil
	case "lifetime":
		return Lifetime, nil
	}
	return Free, fmt.Errorf("unknown tier %q", s)
}

// Unlimited reports whether the tier has no daily cap.
func (t Tier) Unlimited() bool { return t == Premium || t == Lifetime }

const (
	// FreeDailyLimit is the number of exports a free user gets per day.
	FreeDailyLimit = 15
	// Unlimited is reported as the remaining count for uncapped tiers.
	Unlimited = -1
)

// ErrQuotaExceeded blocks an export once the daily limit is spent.
var ErrQuotaExceeded = errors.New("daily free limit reached, upgrade for unlimited exports")

// Stats is the persisted counter.
type Stats struct {
	BlursToday    int
	LastResetDate string
}

// DateKey formats t as the local calendar date the counter is keyed by.
func DateKey(t time.Time) string { return t.Format(time.DateOnly) }

// Current returns s as it stands on today, zeroed when the stored date is
// any other day.
func Current(s Stats, today string) Stats {
	if s.LastResetDate != today {
		return Stats{LastResetDate: today}
	}
	return s
}

// Remaining is how many exports tier may still make today given s.
// Uncapped tiers report Unlimited.
func Remaining(tier Tier, s Stats, today string) int {
	if tier.Unlimited() {
		return Unlimited
	}
	return max(0, FreeDailyLimit-Current(s, today).BlursToday)
}

// Allowed reports whether one more export is permitted.
func Allowed(tier Tier, s Stats, today string) bool {
	return tier.Unlimited() || Current(s, today).BlursToday < FreeDailyLimit
}
