// Package wire parses and serializes Bitget WebSocket frames.
//
// The venue speaks JSON envelopes with event/arg/action/data fields, plus
// bare "ping"/"pong" text frames as a lightweight keepalive. Keepalive
// frames must be filtered with IsKeepalive before Decode.
package wire
