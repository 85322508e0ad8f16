// Package connection manages the relay's WebSocket sessions to the venue.
//
// A Session is one physical WebSocket connection to the venue (private or
// public) with its own lifecycle state machine, keepalive loop, and fixed
// one-second reconnect policy. The Manager owns at most one private and one
// public Session per user, deduplicates concurrent start requests, and
// exposes dynamic ticker subscribe/unsubscribe.
//
// No failure propagates past the Session boundary: every error becomes a
// logged-and-dropped frame or a reconnect cycle.
package connection
