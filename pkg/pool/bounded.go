package pool

import (
	"sync"

	"github.com/relayforge/relay/pkg/errors"
)

// Bounded is a fixed-capacity concurrent store of idle objects.
//
// All operations are non-blocking and total: TryPut refuses when the store
// is full, TryTake reports absence when it is empty. The size never exceeds
// the capacity, even transiently from an external observer's perspective.
// A capacity of zero is valid and means the store retains nothing.
//
// The zero value is not usable; construct with NewBounded.
type Bounded[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
}

// NewBounded creates a bounded store with the given capacity.
// A negative capacity is a configuration error.
func NewBounded[T any](capacity int) (*Bounded[T], error) {
	if capacity < 0 {
		return nil, errors.Newf(errors.ErrorTypeConfig, "pool capacity must not be negative, got %d", capacity)
	}
	return &Bounded[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}, nil
}

// TryPut attempts to insert an idle object. It returns true if the object
// was stored, or false if the store is already at capacity, in which case
// the caller must discard the object.
func (b *Bounded[T]) TryPut(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.items) >= b.capacity {
		return false
	}
	b.items = append(b.items, item)
	return true
}

// TryTake removes and returns the most recently inserted idle object.
// The second return value is false if the store is empty.
func (b *Bounded[T]) TryTake() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.items)
	if n == 0 {
		var zero T
		return zero, false
	}
	item := b.items[n-1]
	var zero T
	b.items[n-1] = zero // release the reference
	b.items = b.items[:n-1]
	return item, true
}

// Purge atomically removes all idle objects, leaving the store empty.
// Objects currently checked out are unaffected.
func (b *Bounded[T]) Purge() {
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero T
	for i := range b.items {
		b.items[i] = zero
	}
	b.items = b.items[:0]
}

// Resize changes the store capacity. If the new capacity is smaller than the
// current size, the excess oldest-inserted objects are evicted immediately.
// A negative capacity is a configuration error and leaves the store unchanged.
func (b *Bounded[T]) Resize(capacity int) error {
	if capacity < 0 {
		return errors.Newf(errors.ErrorTypeConfig, "pool capacity must not be negative, got %d", capacity)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.capacity = capacity
	if excess := len(b.items) - capacity; excess > 0 {
		kept := make([]T, capacity)
		copy(kept, b.items[excess:])
		var zero T
		for i := range b.items {
			b.items[i] = zero
		}
		b.items = kept
	}
	return nil
}

// Len returns the current number of idle objects in the store.
func (b *Bounded[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Cap returns the store capacity.
func (b *Bounded[T]) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity
}
