package factory_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayforge/relay/pkg/errors"
	"github.com/relayforge/relay/pkg/exchange/factory"
)

func startedManager(t *testing.T, capacity int, statisticsEnabled bool) *factory.Manager {
	t.Helper()
	m, err := factory.NewManager(capacity, statisticsEnabled)
	require.NoError(t, err)
	require.NoError(t, m.Start())
	t.Cleanup(func() { _ = m.Stop() })
	return m
}

func TestManager_NegativeDefaultCapacityRejected(t *testing.T) {
	_, err := factory.NewManager(-1, true)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestManager_LifecycleGating(t *testing.T) {
	m, err := factory.NewManager(10, true)
	require.NoError(t, err)

	_, err = m.NewFactory(newTestConsumer("early"))
	assert.True(t, errors.IsLifecycle(err), "operations before Start must fail loudly")
	assert.True(t, errors.IsLifecycle(m.Purge()))
	assert.True(t, errors.IsLifecycle(m.ResetStatistics()))
	_, err = m.Statistics()
	assert.True(t, errors.IsLifecycle(err))

	require.NoError(t, m.Start())
	assert.True(t, errors.IsLifecycle(m.Start()), "double start is a lifecycle error")

	_, err = m.NewFactory(newTestConsumer("ok"))
	require.NoError(t, err)

	require.NoError(t, m.Stop())
	assert.True(t, errors.IsLifecycle(m.Stop()), "double stop is a lifecycle error")

	_, err = m.NewFactory(newTestConsumer("late"))
	assert.True(t, errors.IsLifecycle(err), "operations after Stop must fail loudly")
}

func TestManager_FactoryCachedPerConsumer(t *testing.T) {
	m := startedManager(t, 10, true)

	consumer := newTestConsumer("cached")
	f1, err := m.NewFactory(consumer)
	require.NoError(t, err)
	f2, err := m.NewFactory(consumer)
	require.NoError(t, err)
	assert.Same(t, f1, f2)

	other, err := m.NewFactory(newTestConsumer("other"))
	require.NoError(t, err)
	assert.NotSame(t, f1, other, "each consumer gets a private factory")
}

func TestManager_ConcurrentFirstUseSingleInstance(t *testing.T) {
	m := startedManager(t, 10, true)
	consumer := newTestConsumer("racy")

	const workers = 32
	factories := make([]*factory.PooledFactory, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, err := m.NewFactory(consumer)
			assert.NoError(t, err)
			factories[i] = f
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, factories[0], factories[i], "exactly one factory per consumer")
	}
}

func TestManager_DefaultsAreInitialValuesNotLiveLinks(t *testing.T) {
	m := startedManager(t, 7, true)

	f1, err := m.NewFactory(newTestConsumer("first"))
	require.NoError(t, err)
	assert.Equal(t, 7, f1.Capacity())

	require.NoError(t, m.SetDefaultCapacity(3))
	assert.Equal(t, 7, f1.Capacity(), "existing factories keep their capacity")

	f2, err := m.NewFactory(newTestConsumer("second"))
	require.NoError(t, err)
	assert.Equal(t, 3, f2.Capacity())

	require.NoError(t, f2.SetCapacity(20))
	assert.Equal(t, 7, f1.Capacity())
	assert.Equal(t, 3, m.DefaultCapacity())
}

func TestManager_SetStatisticsEnabledPropagates(t *testing.T) {
	m := startedManager(t, 5, true)

	f, err := m.NewFactory(newTestConsumer("toggle"))
	require.NoError(t, err)
	require.True(t, f.StatisticsEnabled())

	m.SetStatisticsEnabled(false)
	assert.False(t, f.StatisticsEnabled())
	assert.False(t, m.StatisticsEnabled())

	later, err := m.NewFactory(newTestConsumer("later"))
	require.NoError(t, err)
	assert.False(t, later.StatisticsEnabled())
}

func TestManager_AggregateStatistics(t *testing.T) {
	m := startedManager(t, 5, true)

	fa, err := m.NewFactory(newTestConsumer("agg-a"))
	require.NoError(t, err)
	fb, err := m.NewFactory(newTestConsumer("agg-b"))
	require.NoError(t, err)

	exA := fa.Create(false)
	fa.Release(exA)
	fb.Create(false)

	stats, err := m.Statistics()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.Created)
	assert.Equal(t, uint64(1), stats.Released)
	assert.Equal(t, 1, m.Size())
}

func TestManager_StatisticsDisabledError(t *testing.T) {
	m := startedManager(t, 5, false)

	_, err := m.Statistics()
	assert.Error(t, err)
}

func TestManager_ResetStatistics(t *testing.T) {
	m := startedManager(t, 5, true)

	f, err := m.NewFactory(newTestConsumer("reset"))
	require.NoError(t, err)
	f.Release(f.Create(false))

	require.NoError(t, m.ResetStatistics())
	stats, err := m.Statistics()
	require.NoError(t, err)
	assert.Equal(t, factory.Statistics{}, stats)
	assert.Equal(t, 1, f.Size(), "reset must not drain pools")
}

func TestManager_PurgeDrainsAllPools(t *testing.T) {
	m := startedManager(t, 5, true)

	fa, err := m.NewFactory(newTestConsumer("purge-a"))
	require.NoError(t, err)
	fb, err := m.NewFactory(newTestConsumer("purge-b"))
	require.NoError(t, err)
	fa.Release(fa.Create(false))
	fb.Release(fb.Create(false))

	require.NoError(t, m.Purge())
	assert.Equal(t, 0, fa.Size())
	assert.Equal(t, 0, fb.Size())
}

func TestManager_StopPurgesChildren(t *testing.T) {
	m, err := factory.NewManager(5, true)
	require.NoError(t, err)
	require.NoError(t, m.Start())

	f, err := m.NewFactory(newTestConsumer("stop"))
	require.NoError(t, err)
	f.Release(f.Create(false))
	require.Equal(t, 1, f.Size())

	require.NoError(t, m.Stop())
	assert.Equal(t, 0, f.Size())
}

func TestManager_LookupWithoutCreate(t *testing.T) {
	m := startedManager(t, 5, true)

	_, err := m.Lookup("unknown")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	created, err := m.NewFactory(newTestConsumer("known"))
	require.NoError(t, err)

	found, err := m.Lookup("known")
	require.NoError(t, err)
	assert.Same(t, created, found)

	assert.Equal(t, 0, m.Size(), "lookup never materializes a factory")
}

func TestManager_StopExcludesConcurrentRegistration(t *testing.T) {
	m, err := factory.NewManager(5, true)
	require.NoError(t, err)

	const cycles = 20
	const workers = 8
	for c := 0; c < cycles; c++ {
		require.NoError(t, m.Start())

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				f, err := m.NewFactory(newTestConsumer("racer"))
				if err != nil {
					// The manager stopped first; a lifecycle refusal is the
					// only acceptable failure.
					assert.True(t, errors.IsLifecycle(err))
					return
				}
				f.Release(f.Create(false))
			}(w)
		}

		stopErr := m.Stop()
		wg.Wait()
		require.NoError(t, stopErr)

		count := 0
		m.Range(func(string, *factory.PooledFactory) bool {
			count++
			return true
		})
		assert.Equal(t, 0, count, "a stopped registry must stay empty")
	}
}

func TestManager_RestartAfterStop(t *testing.T) {
	m, err := factory.NewManager(5, true)
	require.NoError(t, err)
	require.NoError(t, m.Start())

	before, err := m.NewFactory(newTestConsumer("restart"))
	require.NoError(t, err)

	require.NoError(t, m.Stop())
	require.NoError(t, m.Start())
	defer func() { _ = m.Stop() }()

	after, err := m.NewFactory(newTestConsumer("restart"))
	require.NoError(t, err)
	assert.NotSame(t, before, after, "stop releases the registry storage")
}
