package persist

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Storage is the key/value contract the Adapter persists through.
// GetItem reports ok=false when key has no value.
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// KeyLister is implemented by storages that can enumerate their keys.
type KeyLister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// ListDocuments returns the document keys stored under prefix, with the
// prefix removed, in ascending order.
func ListDocuments(ctx context.Context, lister KeyLister, prefix string) ([]string, error) {
	keys, err := lister.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]string, 0, len(keys))
	for _, k := range keys {
		if doc, ok := strings.CutPrefix(k, prefix); ok {
			docs = append(docs, doc)
		}
	}
	slices.Sort(docs)
	return docs, nil
}
