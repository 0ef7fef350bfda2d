// Package memory is an in-process store.Backend. Nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"saldo/internal/store"
)

type Backend struct {
	mu    sync.Mutex
	items map[string][]byte
	saves int
}

func New() *Backend {
	return &Backend{items: make(map[string][]byte)}
}

// Load returns a copy of the stored value.
func (b *Backend) Load(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Save writes all entries under one lock so readers never see half a batch.
func (b *Backend) Save(ctx context.Context, entries ...store.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range entries {
		b.items[e.Key] = append([]byte(nil), e.Value...)
	}
	b.saves++
	return nil
}

// Keys lists stored keys in sorted order.
func (b *Backend) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.items))
	for k := range b.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Saves reports how many Save batches have been applied.
func (b *Backend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

func (b *Backend) Close() error { return nil }
