// Package relay provides the exchange allocation and pooling core of a
// high-performance in-process message routing engine.
//
// A consumer obtains an exchange (a short-lived work unit wrapping one
// incoming message) from a factory, dispatches it through the routing
// pipeline, and the unit of work releases it when routing completes. The
// pooled factory recycles exchanges through a capacity-bounded per-consumer
// store so that steady-state traffic runs allocation-free; the prototype
// factory allocates fresh exchanges for workloads where pooling is not
// wanted.
//
// # Architecture
//
// The core follows three rules:
//
// 1. Per-consumer isolation: every consumer gets a private pool with its own
// capacity and statistics, so backpressure and reuse never leak between
// consumers.
//
// 2. Non-blocking pooling: a full pool refuses a release instead of waiting,
// and an empty pool falls back to fresh allocation. Pooling is strictly
// best-effort and never adds latency to the routing path.
//
// 3. Loud lifecycle, quiet data path: capacity overflow and ownership
// mismatches are reflected only in return values and counters, while
// lifecycle misuse and invalid configuration fail with structured errors.
//
// # Packages
//
//   - pkg/exchange: the exchange work-unit model
//   - pkg/exchange/factory: pooled and prototype factories and the manager
//   - pkg/pool: capacity-bounded and unbounded pooling primitives
//   - pkg/config, pkg/logger, pkg/errors, pkg/metrics: ambient facilities
//   - internal/engine: the dispatch harness driving consumers
package relay
