// Package ir provides the value types that cross the history boundary.
//
// Actions carry an opaque payload drawn from a small sealed family of
// plain-data values (null, string, int, bool, array, object). The same
// family is used for the exported history that the persistence layer
// writes to storage, so everything here round-trips through JSON.
//
// Key design constraints:
//   - NO float types anywhere - use int64 for numbers
//   - Exported histories serialize as RFC 8785 canonical JSON
//   - All JSON tags use snake_case
//
// ir imports nothing internal.
package ir
