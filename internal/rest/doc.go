// Package rest provides the small signed REST surface the relay needs
// beside its WebSocket feeds.
//
// Base URL: https://api.bitget.com
//
// Every request is signed per call with the ACCESS-KEY / ACCESS-SIGN /
// ACCESS-PASSPHRASE / ACCESS-TIMESTAMP header scheme; the signature covers
// the full request path including the query string.
package rest
