// Package router classifies decoded venue frames into typed domain events.
//
// The classifier validates each decoded venue frame against the expected
// shape for its channel and emits a typed domain event. Frames or elements
// that fail validation are dropped with a logged warning; classification
// never tears down the session. Events are returned synchronously to the
// session's read loop so per-session ordering is preserved without a
// reordering buffer.
package router
