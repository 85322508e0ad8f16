// Package model defines the typed domain events and wallet rows shared
// across the relay.
//
// Conventions:
//   - Balance quantities: decimal.Decimal parsed from the venue's string
//     fields, never binary floats
//   - Timestamps: time.Time in UTC, parsed from unix-millisecond strings
//   - IDs: string for user IDs and instrument IDs, uuid.UUID for rows
package model
