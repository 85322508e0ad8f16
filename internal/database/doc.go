// Package database provides the relay's PostgreSQL connection pool.
//
// One Postgres database holds users, tokens, and wallet-coin rows; the
// relay only upserts and reads through internal/wallet, it does not
// manage the schema.
package database
