// Package engine provides the dispatch harness that drives consumers
// against Relay's exchange factories. It owns the factory manager
// lifecycle, creates one private factory per consumer, and runs a
// configurable multi-worker workload with auto-release units of work.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/relayforge/relay/pkg/config"
	"github.com/relayforge/relay/pkg/errors"
	"github.com/relayforge/relay/pkg/exchange"
	"github.com/relayforge/relay/pkg/exchange/factory"
	"github.com/relayforge/relay/pkg/logger"
	"github.com/relayforge/relay/pkg/tracing"
)

// Handler processes one exchange. A non-nil error marks the exchange as
// failed; it is still auto-released.
type Handler func(ctx context.Context, ex *exchange.Exchange) error

// endpointConsumer is a consuming endpoint identity used by the engine.
type endpointConsumer struct {
	id       string
	endpoint *exchange.Endpoint
}

func (c *endpointConsumer) ID() string { return c.id }

func (c *endpointConsumer) Endpoint() *exchange.Endpoint { return c.endpoint }

// Report summarizes one engine run.
type Report struct {
	// Duration is the wall-clock time of the run.
	Duration time.Duration `json:"duration"`
	// Processed is the number of exchanges routed to completion.
	Processed uint64 `json:"processed"`
	// Consumers maps consumer IDs to their factory statistics.
	Consumers map[string]factory.Statistics `json:"consumers"`
	// Aggregate is the counter-wise sum across all consumers.
	Aggregate factory.Statistics `json:"aggregate"`
	// PooledIdle is the number of idle exchanges left pooled after the run.
	PooledIdle int `json:"pooled_idle"`
}

// Engine drives a set of consumers against the exchange allocation core.
type Engine struct {
	cfg     *config.Config
	manager *factory.Manager
	handler Handler
	log     *zap.Logger

	mu        sync.Mutex
	factories map[string]factory.Factory
}

// New creates an engine from the given configuration. The handler may be
// nil, in which case exchanges complete successfully without work.
func New(cfg *config.Config, handler Handler) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	manager, err := factory.NewManager(cfg.Pool.Capacity, cfg.Pool.StatisticsEnabled)
	if err != nil {
		return nil, err
	}

	if handler == nil {
		handler = func(context.Context, *exchange.Exchange) error { return nil }
	}

	return &Engine{
		cfg:       cfg,
		manager:   manager,
		handler:   handler,
		log:       logger.Get().With(zap.String("component", "engine")),
		factories: make(map[string]factory.Factory),
	}, nil
}

// Manager returns the factory manager, for metrics registration.
func (e *Engine) Manager() *factory.Manager {
	return e.manager
}

// Start starts the factory manager.
func (e *Engine) Start() error {
	return e.manager.Start()
}

// Stop stops the factory manager, draining every consumer pool.
func (e *Engine) Stop() error {
	return e.manager.Stop()
}

// Run drives the configured workload to completion and returns a report.
// The engine must be started first. Run honors context cancellation between
// exchanges.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	consumers := make([]*endpointConsumer, e.cfg.Engine.Consumers)
	for i := range consumers {
		consumers[i] = &endpointConsumer{
			id:       fmt.Sprintf("consumer-%d", i),
			endpoint: &exchange.Endpoint{URI: fmt.Sprintf("direct://consumer-%d", i)},
		}
	}

	var processed atomic.Uint64
	var wg sync.WaitGroup
	runErr := make(chan error, len(consumers)*e.cfg.Engine.WorkersPerConsumer)

	for _, consumer := range consumers {
		f, err := e.factoryFor(consumer)
		if err != nil {
			return nil, err
		}
		tr := tracing.NewRouteTracer(consumer.ID())

		for w := 0; w < e.cfg.Engine.WorkersPerConsumer; w++ {
			wg.Add(1)
			go func(consumer *endpointConsumer, f factory.Factory, tr *tracing.RouteTracer) {
				defer wg.Done()
				for i := 0; i < e.cfg.Engine.Exchanges; i++ {
					select {
					case <-ctx.Done():
						runErr <- ctx.Err()
						return
					default:
					}

					ex := f.Create(true)
					ex.Body = i
					ex.SetHeader("sequence", i)

					uow := Begin(consumer.ID(), ex)
					uow.Done(tr.TraceExchange(ctx, ex.ID(), func(ctx context.Context) error {
						return e.handler(ctx, ex)
					}))
					processed.Add(1)
				}
			}(consumer, f, tr)
		}
	}

	wg.Wait()
	close(runErr)
	for err := range runErr {
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "engine run interrupted")
		}
	}

	report := &Report{
		Duration:  time.Since(start),
		Processed: processed.Load(),
		Consumers: make(map[string]factory.Statistics, len(consumers)),
	}

	e.mu.Lock()
	for id, f := range e.factories {
		stats := f.Statistics()
		report.Consumers[id] = stats
		report.Aggregate = report.Aggregate.Add(stats)
		report.PooledIdle += f.Size()
	}
	e.mu.Unlock()

	e.log.Info("engine run complete",
		zap.Duration("duration", report.Duration),
		zap.Uint64("processed", report.Processed),
		zap.Uint64("created", report.Aggregate.Created),
		zap.Uint64("acquired", report.Aggregate.Acquired),
		zap.Int("pooled_idle", report.PooledIdle))
	return report, nil
}

// factoryFor returns the factory for a consumer, honoring the configured
// strategy: a private pooled factory from the manager, or a prototype
// factory when pooling is disabled.
func (e *Engine) factoryFor(consumer exchange.Consumer) (factory.Factory, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if f, ok := e.factories[consumer.ID()]; ok {
		return f, nil
	}

	var f factory.Factory
	if e.cfg.Pool.Enabled {
		pooled, err := e.manager.NewFactory(consumer)
		if err != nil {
			return nil, err
		}
		f = pooled
	} else {
		f = factory.NewPrototypeFactory(consumer, e.cfg.Pool.StatisticsEnabled)
	}

	e.factories[consumer.ID()] = f
	return f, nil
}
