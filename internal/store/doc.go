// Package store provides SQLite-backed durable storage for business cards.
//
// The store keeps one row per (user, seq) in the users table. Only the row
// with the highest seq for a user is ever read; older rows are history.
//
// # Operations
//
//   - GetLatest: newest card for a user, or found=false (not an error)
//   - Insert: append a new complete card; duplicate users are allowed
//   - UpdateField: rewrite one column of the newest row in place,
//     ErrNoExistingCard when the user has no row
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - A single pooled connection serializes writers
//
// The schema is compatible with databases created by the first release of
// the bot (same table and column names); migrations only add indexes.
package store
