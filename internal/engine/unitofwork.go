package engine

import (
	"sync/atomic"
	"time"

	"github.com/relayforge/relay/pkg/exchange"
	"github.com/relayforge/relay/pkg/metrics"
)

// UnitOfWork tracks the completion of one routed exchange. When routing
// finishes, successfully or with a handled failure, Done records the outcome
// and releases the exchange back to its owning factory if it was created
// with auto-release. Done is idempotent; only the first call has an effect.
type UnitOfWork struct {
	ex       *exchange.Exchange
	consumer string
	done     atomic.Bool
}

// Begin starts a unit of work for the given exchange.
func Begin(consumerID string, ex *exchange.Exchange) *UnitOfWork {
	return &UnitOfWork{ex: ex, consumer: consumerID}
}

// Exchange returns the exchange this unit of work tracks.
func (u *UnitOfWork) Exchange() *exchange.Exchange {
	return u.ex
}

// Done completes the unit of work. The routing outcome is recorded and the
// exchange is auto-released when it was created with the auto-release flag.
// A release refusal is invisible here: pooling failures never fail the work
// that triggered them.
func (u *UnitOfWork) Done(err error) {
	if !u.done.CompareAndSwap(false, true) {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
		u.ex.SetErr(err)
	}
	metrics.ExchangesProcessed.WithLabelValues(u.consumer, outcome).Inc()
	if created := u.ex.Created(); !created.IsZero() {
		metrics.RoutingLatency.WithLabelValues(u.consumer).Observe(time.Since(created).Seconds())
	}

	if u.ex.AutoRelease() {
		if owner := u.ex.Owner(); owner != nil {
			owner.Release(u.ex)
		}
	}
}
