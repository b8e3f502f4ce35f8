// Package exchange defines the work-unit model for Relay's routing core.
//
// An Exchange wraps one incoming piece of work received by a consumer. While
// checked out, the consumer and the routing pipeline exclusively own the
// exchange; when released it either returns to its factory's pool or is
// discarded. Exchanges carry a non-owning back-reference to the factory that
// produced them so that a later release can be routed to the correct pool.
package exchange
