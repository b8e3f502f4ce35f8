package factory

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/relayforge/relay/pkg/exchange"
	"github.com/relayforge/relay/pkg/logger"
	"github.com/relayforge/relay/pkg/pool"
)

// PooledFactory recycles exchanges through a capacity-bounded store private
// to one consumer. Per-consumer isolation keeps backpressure and statistics
// independent: a noisy consumer exhausts only its own pool.
//
// Create and Release never block; a full pool refuses a release and the
// exchange is discarded instead.
type PooledFactory struct {
	consumer exchange.Consumer
	store    *pool.Bounded[*exchange.Exchange]
	stats    *tracker
	log      *zap.Logger

	mu      sync.RWMutex
	routeID string
}

var _ Factory = (*PooledFactory)(nil)

// NewPooledFactory creates a pooled factory bound to the given consumer.
// A negative capacity is rejected. The consumer may be nil for the shared
// manager-level instance used by NewFactory.
func NewPooledFactory(consumer exchange.Consumer, capacity int, statisticsEnabled bool) (*PooledFactory, error) {
	store, err := pool.NewBounded[*exchange.Exchange](capacity)
	if err != nil {
		return nil, err
	}

	log := logger.Get().With(zap.String("component", "pooled_factory"))
	if consumer != nil {
		log = log.With(zap.String("consumer", consumer.ID()))
	}

	return &PooledFactory{
		consumer: consumer,
		store:    store,
		stats:    newTracker(statisticsEnabled),
		log:      log,
	}, nil
}

// Start implements Service. The store is ready at construction time, so
// starting is a no-op.
func (f *PooledFactory) Start() error {
	return nil
}

// Stop implements Service by draining the pool.
func (f *PooledFactory) Stop() error {
	f.Purge()
	return nil
}

// Consumer returns the consumer this factory is bound to.
func (f *PooledFactory) Consumer() exchange.Consumer {
	return f.consumer
}

// RouteID returns the identifier of the route this factory serves.
func (f *PooledFactory) RouteID() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.routeID
}

// SetRouteID sets the route identifier.
func (f *PooledFactory) SetRouteID(routeID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routeID = routeID
}

// Create returns an exchange, reusing a pooled one when available.
func (f *PooledFactory) Create(autoRelease bool) *exchange.Exchange {
	return f.CreateFrom(f.consumerEndpoint(), autoRelease)
}

// CreateFrom returns an exchange stamped with the given originating
// endpoint, reusing a pooled one when available. A reused exchange carries
// no state from its prior use: it was fully reset on release and is
// re-stamped here exactly like a fresh allocation.
func (f *PooledFactory) CreateFrom(from *exchange.Endpoint, autoRelease bool) *exchange.Exchange {
	ex, reused := f.store.TryTake()
	if reused {
		f.stats.incAcquired()
	} else {
		ex = exchange.New()
		f.stats.incCreated()
	}

	ex.MarkBusy()
	ex.SetID(exchange.NextID())
	ex.SetCreated(time.Now())
	ex.SetFromEndpoint(from)
	ex.SetAutoRelease(autoRelease)
	ex.SetOwner(f)
	return ex
}

// Release offers the exchange back to the pool.
//
// An exchange owned by a different factory is rejected without touching any
// state, so pools never leak across consumers. A duplicate release of an
// already-idle exchange counts as a discard and leaves the store intact.
// Otherwise the exchange is reset and stored if the pool has room, or
// discarded if it is full.
func (f *PooledFactory) Release(ex *exchange.Exchange) bool {
	if ex == nil {
		return false
	}
	if owner, ok := ex.Owner().(*PooledFactory); !ok || owner != f {
		f.log.Debug("rejected release of exchange owned by another factory",
			zap.String("exchange_id", ex.ID()))
		return false
	}

	if !ex.MarkIdle() {
		// Stale reference from a caller that already released.
		f.stats.incDiscarded()
		return false
	}

	ex.Reset()
	if f.store.TryPut(ex) {
		f.stats.incReleased()
		return true
	}

	// Pool full: the exchange stays marked idle and becomes garbage, so a
	// later duplicate release cannot smuggle it back into the store.
	f.stats.incDiscarded()
	return false
}

// Capacity returns the pool capacity.
func (f *PooledFactory) Capacity() int {
	return f.store.Cap()
}

// SetCapacity resizes the pool, evicting the oldest idle exchanges when
// shrinking. A negative capacity is rejected.
func (f *PooledFactory) SetCapacity(capacity int) error {
	return f.store.Resize(capacity)
}

// Size returns the current number of idle exchanges in the pool.
func (f *PooledFactory) Size() int {
	return f.store.Len()
}

// StatisticsEnabled reports whether utilization counters are recorded.
func (f *PooledFactory) StatisticsEnabled() bool {
	return f.stats.isEnabled()
}

// SetStatisticsEnabled toggles utilization counters at runtime.
func (f *PooledFactory) SetStatisticsEnabled(enabled bool) {
	f.stats.setEnabled(enabled)
}

// ResetStatistics resets all utilization counters to zero.
func (f *PooledFactory) ResetStatistics() {
	f.stats.reset()
}

// Purge drops every idle exchange from the pool.
func (f *PooledFactory) Purge() {
	f.store.Purge()
}

// Statistics returns a snapshot of the utilization counters.
func (f *PooledFactory) Statistics() Statistics {
	return f.stats.snapshot()
}

func (f *PooledFactory) consumerEndpoint() *exchange.Endpoint {
	if f.consumer == nil {
		return nil
	}
	return f.consumer.Endpoint()
}
