package factory

import "sync/atomic"

// tracker records factory utilization with one atomic counter per event
// kind. Counters are always physically present and conditionally
// incremented, so toggling statistics at runtime never requires draining
// the pool and the hot-path branch stays predictable.
type tracker struct {
	enabled   atomic.Bool
	created   atomic.Uint64
	acquired  atomic.Uint64
	released  atomic.Uint64
	discarded atomic.Uint64
}

func newTracker(enabled bool) *tracker {
	t := &tracker{}
	t.enabled.Store(enabled)
	return t
}

func (t *tracker) incCreated() {
	if t.enabled.Load() {
		t.created.Add(1)
	}
}

func (t *tracker) incAcquired() {
	if t.enabled.Load() {
		t.acquired.Add(1)
	}
}

func (t *tracker) incReleased() {
	if t.enabled.Load() {
		t.released.Add(1)
	}
}

func (t *tracker) incDiscarded() {
	if t.enabled.Load() {
		t.discarded.Add(1)
	}
}

func (t *tracker) isEnabled() bool {
	return t.enabled.Load()
}

func (t *tracker) setEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

// reset zeroes all counters. Counters never decrease otherwise.
func (t *tracker) reset() {
	t.created.Store(0)
	t.acquired.Store(0)
	t.released.Store(0)
	t.discarded.Store(0)
}

// snapshot reads the four counters without cross-counter atomicity. A small
// transient skew between counters is acceptable; losing an increment is not.
func (t *tracker) snapshot() Statistics {
	return Statistics{
		Created:   t.created.Load(),
		Acquired:  t.acquired.Load(),
		Released:  t.released.Load(),
		Discarded: t.discarded.Load(),
	}
}
