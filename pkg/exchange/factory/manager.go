package factory

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/relayforge/relay/pkg/errors"
	"github.com/relayforge/relay/pkg/exchange"
	"github.com/relayforge/relay/pkg/logger"
)

// Manager is the top-level exchange factory service. It owns the global
// defaults (pool capacity, statistics flag) and materializes one
// PooledFactory per distinct consumer on first request, caching it for the
// consumer's lifetime.
//
// The manager must be started before use; operations invoked before Start
// or after Stop fail with a lifecycle error rather than silently no-opping,
// since a silent no-op would mask wiring bugs in the surrounding engine.
type Manager struct {
	started atomic.Bool

	mu                sync.RWMutex
	defaultCapacity   int
	statisticsEnabled bool

	factories sync.Map // consumer ID -> *PooledFactory
	log       *zap.Logger
}

var _ Service = (*Manager)(nil)

// NewManager creates a manager with the given defaults. A negative default
// capacity is rejected.
func NewManager(defaultCapacity int, statisticsEnabled bool) (*Manager, error) {
	if defaultCapacity < 0 {
		return nil, errors.Newf(errors.ErrorTypeConfig, "default pool capacity must not be negative, got %d", defaultCapacity)
	}
	return &Manager{
		defaultCapacity:   defaultCapacity,
		statisticsEnabled: statisticsEnabled,
		log:               logger.Get().With(zap.String("component", "exchange_factory_manager")),
	}, nil
}

// NewDefaultManager creates a manager with the default capacity and
// statistics enabled.
func NewDefaultManager() *Manager {
	m, _ := NewManager(DefaultCapacity, true)
	return m
}

// Start initializes the manager. Starting an already started manager is a
// lifecycle error.
func (m *Manager) Start() error {
	m.mu.Lock()
	if !m.started.CompareAndSwap(false, true) {
		m.mu.Unlock()
		return errors.New(errors.ErrorTypeLifecycle, "exchange factory manager already started")
	}
	capacity, statistics := m.defaultCapacity, m.statisticsEnabled
	m.mu.Unlock()

	m.log.Info("exchange factory manager started",
		zap.Int("default_capacity", capacity),
		zap.Bool("statistics_enabled", statistics))
	return nil
}

// Stop purges every child factory's pool and releases the registry storage.
// Stopping a manager that is not started is a lifecycle error. The registry
// drains under the same lock NewFactory registers under, so a racing
// NewFactory either completes before the drain or observes the stopped
// state; it can never repopulate a stopped registry.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started.CompareAndSwap(true, false) {
		return errors.New(errors.ErrorTypeLifecycle, "exchange factory manager not started")
	}

	count := 0
	m.factories.Range(func(key, value interface{}) bool {
		f := value.(*PooledFactory)
		if err := f.Stop(); err != nil {
			m.log.Warn("failed to stop pooled factory",
				zap.String("consumer", key.(string)), zap.Error(err))
		}
		m.factories.Delete(key)
		count++
		return true
	})

	m.log.Info("exchange factory manager stopped", zap.Int("factories", count))
	return nil
}

// NewFactory returns the pooled factory private to the given consumer,
// creating it on first use with the current defaults. Concurrent first
// calls for the same consumer observe exactly one factory instance; a
// racing loser's construction is discarded before it records any
// statistics or becomes visible.
func (m *Manager) NewFactory(consumer exchange.Consumer) (*PooledFactory, error) {
	if consumer == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "consumer must not be nil")
	}

	// The read lock excludes Stop's drain, so the started check and the
	// registration below are one unit as far as Stop is concerned.
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.checkStarted(); err != nil {
		return nil, err
	}

	key := consumer.ID()
	if existing, ok := m.factories.Load(key); ok {
		return existing.(*PooledFactory), nil
	}

	candidate, err := NewPooledFactory(consumer, m.defaultCapacity, m.statisticsEnabled)
	if err != nil {
		return nil, err
	}

	actual, loaded := m.factories.LoadOrStore(key, candidate)
	f := actual.(*PooledFactory)
	if !loaded {
		m.log.Debug("created pooled factory", zap.String("consumer", key),
			zap.Int("capacity", f.Capacity()))
	}
	return f, nil
}

// Lookup returns the cached factory for the given consumer ID without
// creating one. A consumer that never called NewFactory yields a not-found
// error.
func (m *Manager) Lookup(consumerID string) (*PooledFactory, error) {
	if err := m.checkStarted(); err != nil {
		return nil, err
	}
	existing, ok := m.factories.Load(consumerID)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "no exchange factory for consumer %q", consumerID)
	}
	return existing.(*PooledFactory), nil
}

// DefaultCapacity returns the capacity new factories start with.
func (m *Manager) DefaultCapacity() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultCapacity
}

// SetDefaultCapacity changes the capacity inherited by factories created
// afterwards. Existing factories keep their own capacity; the default is an
// initial value, not a live link.
func (m *Manager) SetDefaultCapacity(capacity int) error {
	if capacity < 0 {
		return errors.Newf(errors.ErrorTypeConfig, "default pool capacity must not be negative, got %d", capacity)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultCapacity = capacity
	return nil
}

// StatisticsEnabled reports the default statistics flag.
func (m *Manager) StatisticsEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statisticsEnabled
}

// SetStatisticsEnabled toggles statistics for every existing factory and
// sets the default for factories created afterwards. Toggling never drains
// any pool.
func (m *Manager) SetStatisticsEnabled(enabled bool) {
	m.mu.Lock()
	m.statisticsEnabled = enabled
	m.mu.Unlock()

	m.factories.Range(func(_, value interface{}) bool {
		value.(*PooledFactory).SetStatisticsEnabled(enabled)
		return true
	})
}

// ResetStatistics resets the counters of every child factory.
func (m *Manager) ResetStatistics() error {
	if err := m.checkStarted(); err != nil {
		return err
	}
	m.factories.Range(func(_, value interface{}) bool {
		value.(*PooledFactory).ResetStatistics()
		return true
	})
	return nil
}

// Purge drains every child factory's pool without touching counters.
func (m *Manager) Purge() error {
	if err := m.checkStarted(); err != nil {
		return err
	}
	m.factories.Range(func(_, value interface{}) bool {
		value.(*PooledFactory).Purge()
		return true
	})
	return nil
}

// Statistics sums the counters across all child factories. The aggregate is
// computed on demand rather than incrementally maintained, so the hot path
// never touches a shared counter. It fails if statistics are disabled.
func (m *Manager) Statistics() (Statistics, error) {
	if err := m.checkStarted(); err != nil {
		return Statistics{}, err
	}
	if !m.StatisticsEnabled() {
		return Statistics{}, errors.New(errors.ErrorTypeValidation, "statistics are disabled")
	}

	var total Statistics
	m.factories.Range(func(_, value interface{}) bool {
		total = total.Add(value.(*PooledFactory).Statistics())
		return true
	})
	return total, nil
}

// Range calls fn for every cached factory until fn returns false. The
// iteration order is unspecified.
func (m *Manager) Range(fn func(consumerID string, f *PooledFactory) bool) {
	m.factories.Range(func(key, value interface{}) bool {
		return fn(key.(string), value.(*PooledFactory))
	})
}

// Size returns the total number of idle exchanges pooled across all child
// factories.
func (m *Manager) Size() int {
	total := 0
	m.factories.Range(func(_, value interface{}) bool {
		total += value.(*PooledFactory).Size()
		return true
	})
	return total
}

func (m *Manager) checkStarted() error {
	if !m.started.Load() {
		return errors.New(errors.ErrorTypeLifecycle, "exchange factory manager is not started")
	}
	return nil
}
