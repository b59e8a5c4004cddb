package progress

import (
	"fmt"
	"strings"
	"sync"
)

// Policy controls how a Tracker treats readings that go backwards.
type Policy string

const (
	// PolicyPassthrough shows every reading as-is, including regressions.
	PolicyPassthrough Policy = "passthrough"
	// PolicyMonotonic ignores readings below the current high-water mark.
	// A phase-start reading begins a new operation and resets the mark.
	PolicyMonotonic Policy = "monotonic"
)

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyPassthrough:
		return PolicyPassthrough, nil
	case PolicyMonotonic:
		return PolicyMonotonic, nil
	default:
		return "", fmt.Errorf("unknown progress policy %q (want %s or %s)", s, PolicyPassthrough, PolicyMonotonic)
	}
}

// Tracker keeps the latest displayed reading for one run.
type Tracker struct {
	mu     sync.Mutex
	policy Policy
	last   Event
	seen   bool
}

// NewTracker returns a Tracker applying the given policy.
func NewTracker(policy Policy) *Tracker {
	if policy == "" {
		policy = PolicyPassthrough
	}
	return &Tracker{policy: policy}
}

// Observe records ev and reports whether it should be displayed.
func (t *Tracker) Observe(ev Event) (Event, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.policy == PolicyMonotonic && t.seen && ev.Rule != RulePhase && ev.Percent < t.last.Percent {
		return t.last, false
	}
	t.last = ev
	t.seen = true
	return ev, true
}

// Current returns the latest displayed reading.
func (t *Tracker) Current() (Event, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, t.seen
}

// Reset forgets the previous run.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = Event{}
	t.seen = false
}

// Policy reports the active policy.
func (t *Tracker) Policy() Policy {
	return t.policy
}
