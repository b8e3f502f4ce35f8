package exchange

import (
	"sync/atomic"
	"time"

	"github.com/relayforge/relay/pkg/pool"
)

// Endpoint identifies the origin of an exchange, typically the listener
// address a consumer is bound to.
type Endpoint struct {
	URI string
}

// Consumer is the consuming endpoint that requests exchanges from a factory.
// Implementations live in the surrounding engine; the pooling core only needs
// a stable identity per consumer.
type Consumer interface {
	// ID returns a stable identifier, unique per consumer.
	ID() string
	// Endpoint returns the endpoint this consumer is bound to, or nil.
	Endpoint() *Endpoint
}

// Releaser routes a release call back to the factory that produced an
// exchange. It is a non-owning association: holding an exchange never keeps
// a factory alive beyond its own lifecycle.
type Releaser interface {
	// Release offers the exchange back to its pool. It returns true if the
	// exchange was accepted, false if it was discarded or not owned by the
	// implementation.
	Release(ex *Exchange) bool
}

// Exchange is a short-lived work unit wrapping one incoming message.
//
// All per-use state is cleared by Reset before an exchange is recycled, so a
// reused exchange is indistinguishable from a freshly allocated one. The
// owner binding is the only state that survives a reset.
type Exchange struct {
	id           string
	fromEndpoint *Endpoint
	autoRelease  bool
	created      time.Time
	owner        Releaser

	// Body is the message payload being routed.
	Body interface{}

	headers    map[string]interface{}
	properties map[string]interface{}
	err        error

	// idle is true while the exchange sits in a pool. It guards against a
	// duplicate release inserting the same exchange into the store twice.
	idle atomic.Bool
}

// New allocates a fresh exchange. Factories are the normal entry point;
// exchanges created directly are never pooled.
func New() *Exchange {
	return &Exchange{}
}

// ID returns the exchange identifier.
func (e *Exchange) ID() string {
	return e.id
}

// SetID sets the exchange identifier.
func (e *Exchange) SetID(id string) {
	e.id = id
}

// FromEndpoint returns the endpoint this exchange originated from, or nil.
func (e *Exchange) FromEndpoint() *Endpoint {
	return e.fromEndpoint
}

// SetFromEndpoint sets the originating endpoint.
func (e *Exchange) SetFromEndpoint(ep *Endpoint) {
	e.fromEndpoint = ep
}

// AutoRelease reports whether the exchange should be released back to its
// factory automatically when routing completes.
func (e *Exchange) AutoRelease() bool {
	return e.autoRelease
}

// SetAutoRelease sets the auto-release flag.
func (e *Exchange) SetAutoRelease(autoRelease bool) {
	e.autoRelease = autoRelease
}

// Created returns the time the exchange was handed out.
func (e *Exchange) Created() time.Time {
	return e.created
}

// SetCreated stamps the hand-out time.
func (e *Exchange) SetCreated(t time.Time) {
	e.created = t
}

// Owner returns the factory this exchange belongs to, or nil for exchanges
// created outside a factory.
func (e *Exchange) Owner() Releaser {
	return e.owner
}

// SetOwner binds the exchange to its producing factory.
func (e *Exchange) SetOwner(owner Releaser) {
	e.owner = owner
}

// SetHeader sets a message header, allocating the header map on first use.
func (e *Exchange) SetHeader(key string, value interface{}) {
	if e.headers == nil {
		e.headers = pool.GetMap()
	}
	e.headers[key] = value
}

// Header returns a message header and whether it is present.
func (e *Exchange) Header(key string) (interface{}, bool) {
	if e.headers == nil {
		return nil, false
	}
	v, ok := e.headers[key]
	return v, ok
}

// Headers returns the header map, which may be nil if no header was set.
func (e *Exchange) Headers() map[string]interface{} {
	return e.headers
}

// SetProperty sets an exchange-scoped property, allocating the property map
// on first use. Properties carry routing state that is not part of the
// message itself.
func (e *Exchange) SetProperty(key string, value interface{}) {
	if e.properties == nil {
		e.properties = pool.GetMap()
	}
	e.properties[key] = value
}

// Property returns an exchange property and whether it is present.
func (e *Exchange) Property(key string) (interface{}, bool) {
	if e.properties == nil {
		return nil, false
	}
	v, ok := e.properties[key]
	return v, ok
}

// Properties returns the property map, which may be nil if no property was
// set.
func (e *Exchange) Properties() map[string]interface{} {
	return e.properties
}

// SetErr records a routing failure on the exchange.
func (e *Exchange) SetErr(err error) {
	e.err = err
}

// Err returns the routing failure recorded on the exchange, or nil.
func (e *Exchange) Err() error {
	return e.err
}

// MarkIdle transitions the exchange from checked-out to idle. It returns
// false if the exchange was already idle, which means the caller holds a
// stale reference and must not recycle it again.
func (e *Exchange) MarkIdle() bool {
	return e.idle.CompareAndSwap(false, true)
}

// MarkBusy transitions the exchange back to checked-out when it is handed
// to a consumer.
func (e *Exchange) MarkBusy() {
	e.idle.Store(false)
}

// Idle reports whether the exchange currently sits in a pool.
func (e *Exchange) Idle() bool {
	return e.idle.Load()
}

// Reset restores every mutable per-use field to its default so the exchange
// can be reused without leaking state from the prior use. Header and
// property maps are returned to the shared map pool. The owner binding is
// kept: a pooled exchange remains associated with its factory.
func (e *Exchange) Reset() {
	e.id = ""
	e.fromEndpoint = nil
	e.autoRelease = false
	e.created = time.Time{}
	e.Body = nil
	e.err = nil
	if e.headers != nil {
		pool.PutMap(e.headers)
		e.headers = nil
	}
	if e.properties != nil {
		pool.PutMap(e.properties)
		e.properties = nil
	}
}
