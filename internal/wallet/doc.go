// Package wallet implements state reconciliation against durable storage.
//
// The Store upserts observed account state into Postgres (upsert-by-key,
// idempotent so at-least-once application is safe); the Reconciler consumes
// account truth from the dispatcher, applies it, then re-reads a consistent
// wallet view and republishes it. Store failures are logged and never block
// fan-out to live consumers.
package wallet
