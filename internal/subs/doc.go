// Package subs tracks the channel subscriptions each user's sessions
// must maintain.
//
// The registry tracks which logical venue channels a user's sessions must
// maintain: a fixed private set (account, orders) supplied at start time,
// and a mutable public set of ticker instrument IDs that supports add and
// remove at runtime. Sessions read the registry to build subscribe frames
// after every (re)connect.
package subs
