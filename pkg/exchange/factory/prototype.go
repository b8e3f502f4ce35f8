package factory

import (
	"sync"
	"time"

	"github.com/relayforge/relay/pkg/errors"
	"github.com/relayforge/relay/pkg/exchange"
)

// PrototypeFactory allocates a fresh exchange on every request and never
// retains anything. It is the non-pooling strategy: Release always succeeds
// and simply drops the exchange. It exists as a distinct type rather than a
// default behavior so the two strategies cannot silently bleed into each
// other.
type PrototypeFactory struct {
	consumer exchange.Consumer
	stats    *tracker

	mu      sync.RWMutex
	routeID string
}

var _ Factory = (*PrototypeFactory)(nil)

// NewPrototypeFactory creates a non-pooling factory bound to the given
// consumer.
func NewPrototypeFactory(consumer exchange.Consumer, statisticsEnabled bool) *PrototypeFactory {
	return &PrototypeFactory{
		consumer: consumer,
		stats:    newTracker(statisticsEnabled),
	}
}

// Start implements Service as a no-op.
func (f *PrototypeFactory) Start() error { return nil }

// Stop implements Service as a no-op; there is no pool to drain.
func (f *PrototypeFactory) Stop() error { return nil }

// Consumer returns the consumer this factory is bound to.
func (f *PrototypeFactory) Consumer() exchange.Consumer {
	return f.consumer
}

// RouteID returns the identifier of the route this factory serves.
func (f *PrototypeFactory) RouteID() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.routeID
}

// SetRouteID sets the route identifier.
func (f *PrototypeFactory) SetRouteID(routeID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routeID = routeID
}

// Create allocates a fresh exchange.
func (f *PrototypeFactory) Create(autoRelease bool) *exchange.Exchange {
	var from *exchange.Endpoint
	if f.consumer != nil {
		from = f.consumer.Endpoint()
	}
	return f.CreateFrom(from, autoRelease)
}

// CreateFrom allocates a fresh exchange stamped with the given endpoint.
func (f *PrototypeFactory) CreateFrom(from *exchange.Endpoint, autoRelease bool) *exchange.Exchange {
	f.stats.incCreated()

	ex := exchange.New()
	ex.SetID(exchange.NextID())
	ex.SetCreated(time.Now())
	ex.SetFromEndpoint(from)
	ex.SetAutoRelease(autoRelease)
	ex.SetOwner(f)
	return ex
}

// Release always succeeds; the exchange is left to the garbage collector.
func (f *PrototypeFactory) Release(_ *exchange.Exchange) bool {
	return true
}

// Capacity returns zero; nothing is ever stored.
func (f *PrototypeFactory) Capacity() int { return 0 }

// SetCapacity rejects negative values and otherwise has no effect.
func (f *PrototypeFactory) SetCapacity(capacity int) error {
	if capacity < 0 {
		return errors.Newf(errors.ErrorTypeConfig, "pool capacity must not be negative, got %d", capacity)
	}
	return nil
}

// Size returns zero; nothing is ever stored.
func (f *PrototypeFactory) Size() int { return 0 }

// StatisticsEnabled reports whether utilization counters are recorded.
func (f *PrototypeFactory) StatisticsEnabled() bool {
	return f.stats.isEnabled()
}

// SetStatisticsEnabled toggles utilization counters at runtime.
func (f *PrototypeFactory) SetStatisticsEnabled(enabled bool) {
	f.stats.setEnabled(enabled)
}

// ResetStatistics resets all utilization counters to zero.
func (f *PrototypeFactory) ResetStatistics() {
	f.stats.reset()
}

// Purge has no effect; there is no pool.
func (f *PrototypeFactory) Purge() {}

// Statistics returns a snapshot of the utilization counters.
func (f *PrototypeFactory) Statistics() Statistics {
	return f.stats.snapshot()
}
