// Package pool provides the object pooling primitives used by Relay's
// exchange allocation core.
//
// Two containers are provided:
//
//   - Bounded[T]: a fixed-capacity, concurrency-safe store of idle objects.
//     TryPut refuses instead of blocking when the store is full, which makes
//     a full pool the backpressure point rather than a source of latency.
//     Take order is LIFO for cache locality; shrinking the capacity evicts
//     the oldest-inserted objects first.
//
//   - Pool[T]: a thin generic wrapper around sync.Pool with an optional
//     reset function and atomic usage statistics, for auxiliary objects
//     (header maps and the like) where strict capacity bounds do not matter.
//
// Neither container touches event counters; callers account for reuse,
// release and discard events at their own layer.
package pool
