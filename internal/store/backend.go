package store

import "context"

// Namespaced keys under which the four entities are persisted. Each value is
// a self-contained JSON document.
const (
	KeyTransactions = "transactions"
	KeyCategories   = "categories"
	KeyCurrency     = "currency"
	KeySyncConfig   = "sync_config"
)

// Entry is one key/value pair handed to a Backend.
type Entry struct {
	Key   string
	Value []byte
}

// Backend is a durable key-value namespace.
//
// Load reports ok=false for an absent key; absence is not an error.
// Save must be atomic across all entries: either every entry is durably
// written or none is.
type Backend interface {
	Load(ctx context.Context, key string) (value []byte, ok bool, err error)
	Save(ctx context.Context, entries ...Entry) error
}
