// Package persist saves and restores action histories through a key/value
// Storage.
//
// An Adapter is engine middleware for a Store whose state is a
// history.State. It watches committed transitions and mirrors the exported
// history (actions plus tracking flag, never the snapshot) into storage as
// canonical JSON under the current document key. A load action switches
// documents: recording is paused, the stored history is read, and a hydrate
// action rebuilds the log on top of the current present.
//
// Storage I/O runs off the dispatch path, one operation at a time. An
// operation requested while another is in flight is skipped; the next
// change, or Flush, writes the newer history. Storage failures are logged
// and never reach Dispatch, so in-memory history stays authoritative.
package persist
