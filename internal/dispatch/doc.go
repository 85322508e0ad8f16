// Package dispatch fans typed domain events out to per-user consumers.
//
// The dispatcher routes each typed domain event to the registered consumers
// of its user and forwards account/orders truth to state reconciliation.
// It is pure routing: consumer lifetime is owned by the stream layer, and
// reconciliation runs even when no consumer is attached.
package dispatch
