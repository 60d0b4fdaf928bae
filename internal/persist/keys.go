package persist

import "github.com/google/uuid"

// DefaultKeyPrefix namespaces history documents inside a shared Storage.
const DefaultKeyPrefix = "history:"

// NewDocumentKey returns a fresh, time-sortable document key (UUIDv7).
//
// Panics if the system random source fails.
func NewDocumentKey() string {
	return uuid.Must(uuid.NewV7()).String()
}
