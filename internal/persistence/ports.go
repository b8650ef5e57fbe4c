// Package persistence defines the blob store the logbook is saved to and
// the keys it uses.
package persistence

import "context"

// Keys under which the two aggregates are stored.
const (
	EntriesKey    = "sitelog_entries"
	CategoriesKey = "sitelog_categories"
)

// Keys lists every key the logbook writes, in load order.
var Keys = []string{CategoriesKey, EntriesKey}

// BlobStore is a durable key/value store for opaque blobs.
// Load reports ok=false when nothing has been stored under key yet.
type BlobStore interface {
	Load(ctx context.Context, key string) (blob []byte, ok bool, err error)
	Save(ctx context.Context, key string, blob []byte) error
}
