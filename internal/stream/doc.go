// Package stream exposes a user's live event feed over Server-Sent Events.
//
// The handler authenticates each request with an injected TokenVerifier,
// registers a consumer with the dispatcher for the duration of the request,
// and writes each event as a named SSE message:
//
//	snapshot  full account balances after a fresh login
//	update    one incremental balance change
//	orders    order snapshots and updates
//	price     public ticker quotes
//	wallet    durable wallet state after reconciliation
//
// Comment-only ping lines keep idle connections alive through proxies.
package stream
