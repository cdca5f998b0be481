package alerting

import (
	"sync"
	"time"
)

// CooldownTracker records when each rule last fired and gates re-firing
// within the rule's cooldown period. The window is always measured from
// the most recent fire, not from evaluation time.
type CooldownTracker struct {
	lastFired map[string]time.Time
	mu        sync.Mutex
}

// NewCooldownTracker creates an empty tracker.
func NewCooldownTracker() *CooldownTracker {
	return &CooldownTracker{
		lastFired: make(map[string]time.Time),
	}
}

// Allow reports whether a rule may fire at the given instant. A rule
// that has never fired is always allowed.
func (t *CooldownTracker) Allow(ruleID string, now time.Time, cooldown time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, fired := t.lastFired[ruleID]
	if !fired {
		return true
	}
	return now.Sub(last) >= cooldown
}

// MarkFired records a fire instant for the rule.
func (t *CooldownTracker) MarkFired(ruleID string, firedAt time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastFired[ruleID] = firedAt
}

// LastFired returns the most recent fire instant for the rule.
func (t *CooldownTracker) LastFired(ruleID string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.lastFired[ruleID]
	return last, ok
}
