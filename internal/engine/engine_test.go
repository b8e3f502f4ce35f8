package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/relayforge/relay/pkg/config"
	"github.com/relayforge/relay/pkg/exchange"
	"github.com/relayforge/relay/pkg/exchange/factory"
	"github.com/relayforge/relay/pkg/testutil"
	"github.com/relayforge/relay/pkg/tracing"
)

func testConfig(pooled bool) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Pool.Enabled = pooled
	cfg.Pool.Capacity = 8
	cfg.Engine.Consumers = 2
	cfg.Engine.WorkersPerConsumer = 3
	cfg.Engine.Exchanges = 50
	return cfg
}

func TestEngine_RunPooled(t *testing.T) {
	eng, err := New(testConfig(true), nil)
	require.NoError(t, err)
	require.NoError(t, eng.Start())
	defer func() { _ = eng.Stop() }()

	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	report, err := eng.Run(ctx)
	require.NoError(t, err)

	expected := uint64(2 * 3 * 50)
	assert.Equal(t, expected, report.Processed)
	assert.Len(t, report.Consumers, 2)

	// Every exchange handed out was either fresh or reused, and every one
	// came back as a release or a discard.
	assert.Equal(t, expected, report.Aggregate.Created+report.Aggregate.Acquired)
	assert.Equal(t, expected, report.Aggregate.Released+report.Aggregate.Discarded)
	assert.Greater(t, report.Aggregate.Acquired, uint64(0), "a pooled run must see reuse")
	assert.LessOrEqual(t, report.PooledIdle, 2*8)
}

func TestEngine_RunPrototype(t *testing.T) {
	eng, err := New(testConfig(false), nil)
	require.NoError(t, err)
	require.NoError(t, eng.Start())
	defer func() { _ = eng.Stop() }()

	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	report, err := eng.Run(ctx)
	require.NoError(t, err)

	expected := uint64(2 * 3 * 50)
	assert.Equal(t, expected, report.Processed)
	assert.Equal(t, expected, report.Aggregate.Created)
	assert.Equal(t, uint64(0), report.Aggregate.Acquired)
	assert.Equal(t, 0, report.PooledIdle)
}

func TestEngine_HandlerErrorsStillRelease(t *testing.T) {
	handler := func(ctx context.Context, ex *exchange.Exchange) error {
		return errors.New("handled failure")
	}

	eng, err := New(testConfig(true), handler)
	require.NoError(t, err)
	require.NoError(t, eng.Start())
	defer func() { _ = eng.Stop() }()

	report, err := eng.Run(context.Background())
	require.NoError(t, err)

	expected := uint64(2 * 3 * 50)
	assert.Equal(t, expected, report.Processed)
	assert.Equal(t, expected, report.Aggregate.Released+report.Aggregate.Discarded,
		"failed exchanges are still auto-released")
}

func TestEngine_RunCancelled(t *testing.T) {
	cfg := testConfig(true)
	cfg.Engine.Exchanges = 1000000

	eng, err := New(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, eng.Start())
	defer func() { _ = eng.Stop() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = eng.Run(ctx)
	assert.Error(t, err)
}

func TestEngine_InvalidConfigRejected(t *testing.T) {
	cfg := testConfig(true)
	cfg.Pool.Capacity = -1

	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestEngine_TracesEachRoutedExchange(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracing.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)))
	defer tracing.SetTracerProvider(noop.NewTracerProvider())

	eng, err := New(testConfig(true), nil)
	require.NoError(t, err)
	require.NoError(t, eng.Start())
	defer func() { _ = eng.Stop() }()

	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	report, err := eng.Run(ctx)
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Equal(t, int(report.Processed), len(spans), "one span per routed exchange")
	assert.Contains(t, []string{"route.consumer-0.process", "route.consumer-1.process"}, spans[0].Name)
}

func TestEngine_StopDrainsPools(t *testing.T) {
	eng, err := New(testConfig(true), nil)
	require.NoError(t, err)
	require.NoError(t, eng.Start())

	_, err = eng.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, eng.Stop())
	assert.Equal(t, 0, eng.Manager().Size())
}

func TestUnitOfWork_AutoRelease(t *testing.T) {
	f, err := factory.NewPooledFactory(nil, 4, true)
	require.NoError(t, err)

	ex := f.CreateFrom(&exchange.Endpoint{URI: "direct://uow"}, true)
	uow := Begin("uow-consumer", ex)
	require.Same(t, ex, uow.Exchange())

	uow.Done(nil)
	assert.Equal(t, 1, f.Size(), "auto-release returns the exchange to the pool")

	stats := f.Statistics()
	assert.Equal(t, uint64(1), stats.Released)
}

func TestUnitOfWork_DoneIdempotent(t *testing.T) {
	f, err := factory.NewPooledFactory(nil, 4, true)
	require.NoError(t, err)

	ex := f.Create(true)
	uow := Begin("uow-consumer", ex)
	uow.Done(nil)
	uow.Done(nil)
	uow.Done(errors.New("late"))

	stats := f.Statistics()
	assert.Equal(t, uint64(1), stats.Released)
	assert.Equal(t, uint64(0), stats.Discarded, "repeated Done must not double-release")
}

func TestUnitOfWork_NoAutoRelease(t *testing.T) {
	f, err := factory.NewPooledFactory(nil, 4, true)
	require.NoError(t, err)

	ex := f.Create(false)
	uow := Begin("uow-consumer", ex)
	uow.Done(nil)
	assert.Equal(t, 0, f.Size(), "without auto-release the caller keeps ownership")

	assert.True(t, f.Release(ex))
}
