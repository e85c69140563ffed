// Package event tracks the outstanding completion handles of one array.
package event

import (
	"sync"

	"github.com/vortex-ml/vortex/internal/device"
)

// DefaultMaxPending bounds the pending set. Repeated in-place operations on
// one array would otherwise accumulate events without limit; once the bound
// is hit the tracker waits out the oldest handles, which are all but
// guaranteed complete on an in-order queue.
const DefaultMaxPending = 64

// Tracker is the per-array set of pending completion handles: operations
// that last wrote, or are still writing, the array's buffer region.
// The zero value is ready to use.
type Tracker struct {
	mu      sync.Mutex
	pending []device.Event
	max     int
}

// NewTracker creates a tracker with a custom pending bound. A bound of zero
// falls back to DefaultMaxPending.
func NewTracker(maxPending int) *Tracker {
	return &Tracker{max: maxPending}
}

func (t *Tracker) bound() int {
	if t.max > 0 {
		return t.max
	}
	return DefaultMaxPending
}

// Add records a new handle for an in-place or partial write, compacting the
// set: completed handles are pruned, and if the set still overflows the
// bound the oldest handles are waited out. A live dependency is never
// dropped without being waited on.
func (t *Tracker) Add(ev device.Event) error {
	if ev == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.pending[:0]
	for _, p := range t.pending {
		if !p.Done() {
			kept = append(kept, p)
		}
	}
	t.pending = append(kept, ev)

	for len(t.pending) > t.bound() {
		if err := t.pending[0].Wait(); err != nil {
			return err
		}
		t.pending = t.pending[1:]
	}
	return nil
}

// Replace supersedes every pending handle with the single handle of an
// operation that overwrites the whole array. The superseded handles are
// already folded into that operation's wait list.
func (t *Tracker) Replace(ev device.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = t.pending[:0]
	if ev != nil {
		t.pending = append(t.pending, ev)
	}
}

// Snapshot returns a copy of the pending set for use as a wait list.
func (t *Tracker) Snapshot() []device.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.pending) == 0 {
		return nil
	}
	return append([]device.Event(nil), t.pending...)
}

// Wait blocks until every pending handle completes, then clears the set.
// The first device-side fault encountered is returned.
func (t *Tracker) Wait() error {
	t.mu.Lock()
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	var first error
	for _, ev := range pending {
		if err := ev.Wait(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Len reports the current pending count.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
