// Package store provides SQLite-backed key/value storage for persisted
// action histories.
//
// Each document is one row in the items table: the storage key, the
// canonical JSON value, and a revision counter bumped on every write.
// Store implements the persistence adapter's Storage contract.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks instead of failing
//   - foreign_keys=ON
//   - single open connection: SQLite allows one writer
//
// Key listings are ordered with COLLATE BINARY so results do not depend
// on locale.
package store
