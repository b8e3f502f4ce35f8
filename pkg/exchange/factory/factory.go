package factory

import (
	"github.com/relayforge/relay/pkg/exchange"
)

// DefaultCapacity is the per-consumer pool capacity used when none is
// configured.
const DefaultCapacity = 100

// Service is the lifecycle contract shared by the manager and its factories.
type Service interface {
	Start() error
	Stop() error
}

// Statistics is a point-in-time snapshot of factory utilization counters.
// The four counters are read independently, so a snapshot taken under
// concurrent traffic may be slightly inconsistent across counters; no
// individual increment is ever lost.
type Statistics struct {
	// Created is the number of exchanges freshly allocated.
	Created uint64 `json:"created"`
	// Acquired is the number of exchanges reused from the pool.
	Acquired uint64 `json:"acquired"`
	// Released is the number of exchanges returned to the pool.
	Released uint64 `json:"released"`
	// Discarded is the number of exchanges thrown away, typically because
	// the pool was at capacity.
	Discarded uint64 `json:"discarded"`
}

// Add returns the counter-wise sum of two snapshots.
func (s Statistics) Add(other Statistics) Statistics {
	return Statistics{
		Created:   s.Created + other.Created,
		Acquired:  s.Acquired + other.Acquired,
		Released:  s.Released + other.Released,
		Discarded: s.Discarded + other.Discarded,
	}
}

// Factory hands out exchanges to a consumer and optionally recycles them.
//
// Create and Release are safe for concurrent use from many goroutines; the
// administrative operations (capacity, statistics, purge) are not on the
// data path and may observe in-flight traffic.
type Factory interface {
	Service

	// Consumer returns the consumer this factory is bound to, or nil for
	// the shared manager-level factory.
	Consumer() exchange.Consumer

	// RouteID returns the identifier of the route this factory serves.
	RouteID() string

	// SetRouteID sets the route identifier.
	SetRouteID(routeID string)

	// Create returns an exchange, reusing a pooled one when available.
	// autoRelease marks the exchange for automatic release by the unit of
	// work when routing completes.
	Create(autoRelease bool) *exchange.Exchange

	// CreateFrom is Create with the originating endpoint stamped on the
	// returned exchange.
	CreateFrom(from *exchange.Endpoint, autoRelease bool) *exchange.Exchange

	// Release offers the exchange back to the pool. It returns true if the
	// exchange was retained for reuse, false if it was rejected or
	// discarded. A pooling refusal is not an error; the caller simply
	// drops its reference.
	Release(ex *exchange.Exchange) bool

	// Capacity returns the pool capacity for this factory.
	Capacity() int

	// SetCapacity changes the pool capacity. Shrinking below the current
	// pool size evicts the oldest idle exchanges immediately. A negative
	// capacity is rejected.
	SetCapacity(capacity int) error

	// Size returns the current number of idle exchanges in the pool.
	Size() int

	// StatisticsEnabled reports whether utilization counters are recorded.
	StatisticsEnabled() bool

	// SetStatisticsEnabled toggles utilization counters at runtime without
	// draining the pool.
	SetStatisticsEnabled(enabled bool)

	// ResetStatistics resets all utilization counters to zero.
	ResetStatistics()

	// Purge drops every idle exchange from the pool. Exchanges currently
	// checked out are unaffected.
	Purge()

	// Statistics returns a snapshot of the utilization counters.
	Statistics() Statistics
}
