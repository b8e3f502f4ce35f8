// Package factory implements exchange allocation for Relay consumers.
//
// Two strategies are provided. PooledFactory recycles exchanges through a
// capacity-bounded per-consumer store so that steady-state traffic runs
// allocation-free; PrototypeFactory allocates a fresh exchange on every
// request and never retains anything. The Manager owns the per-consumer
// pooled factories, materializing one lazily the first time a consumer asks
// for private pooling, and carries the service lifecycle for the whole tree.
//
// Pooling is strictly best-effort: a full store refuses a release instead of
// blocking, a failed release degrades into a fresh allocation on the next
// create, and no pooling failure ever surfaces into the routing path. The
// only loud failures are lifecycle misuse and invalid configuration.
package factory
