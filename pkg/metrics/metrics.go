// Package metrics exposes Relay's exchange pooling and routing metrics to
// Prometheus.
//
// Routing-side metrics (exchanges processed, routing latency) are recorded
// at dispatch time by the engine, which is not latency-critical. Pool
// utilization is deliberately not pushed from the allocation hot path:
// PoolCollector reads factory statistics snapshots on scrape instead.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExchangesProcessed counts exchanges routed to completion, labelled by
	// consumer and outcome (success or error).
	ExchangesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relay",
			Subsystem: "routing",
			Name:      "exchanges_processed_total",
			Help:      "Total number of exchanges routed to completion",
		},
		[]string{"consumer", "outcome"},
	)

	// RoutingLatency tracks the time from exchange creation to completion.
	RoutingLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "relay",
			Subsystem: "routing",
			Name:      "latency_seconds",
			Help:      "Time from exchange creation to routing completion",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 10, 8), // 1us to 10s
		},
		[]string{"consumer"},
	)
)
