// Package store owns the canonical in-process view of transactions,
// categories, the currency symbol and the sync configuration.
//
// Every mutation follows the same sequence under the write lock: build the
// new value, persist it, and only then install it in memory. A failed write
// therefore leaves both views at their pre-call value.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"saldo/internal/core"
	"saldo/internal/log"
)

type Store struct {
	backend Backend
	now     func() time.Time
	newID   func() string
	logger  *log.Logger

	mu       sync.RWMutex
	txs      []core.Transaction
	cats     []core.Category
	currency string
	syncCfg  core.SyncConfig
}

type Option func(*Store)

// WithClock overrides the clock used to stamp creation times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentStore) }
}

// Open loads all four namespaces from the backend. Missing entries fall back
// to defaults; a missing category list is seeded and persisted once.
func Open(ctx context.Context, backend Backend, opts ...Option) (*Store, error) {
	s := &Store{
		backend:  backend,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   log.Discard(),
		currency: core.DefaultCurrency,
		syncCfg:  core.DefaultSyncConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}

	var (
		txs      []core.Transaction
		cats     []core.Category
		currency string
		syncCfg  core.SyncConfig
		haveTxs  bool
		haveCats bool
		haveCur  bool
		haveSync bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		haveTxs, err = load(gctx, backend, KeyTransactions, &txs)
		return err
	})
	g.Go(func() (err error) {
		haveCats, err = load(gctx, backend, KeyCategories, &cats)
		return err
	})
	g.Go(func() (err error) {
		haveCur, err = load(gctx, backend, KeyCurrency, &currency)
		return err
	})
	g.Go(func() (err error) {
		haveSync, err = load(gctx, backend, KeySyncConfig, &syncCfg)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if haveTxs {
		s.txs = nonNil(txs)
	} else {
		s.txs = []core.Transaction{}
	}
	if haveCur && strings.TrimSpace(currency) != "" {
		s.currency = currency
	}
	if haveSync {
		if strings.TrimSpace(syncCfg.FileName) == "" {
			syncCfg.FileName = core.DefaultFileName
		}
		s.syncCfg = syncCfg
	}
	if haveCats {
		s.cats = nonNil(cats)
	} else {
		seed := core.DefaultCategories()
		if err := s.persist(ctx, KeyCategories, seed); err != nil {
			return nil, err
		}
		s.cats = seed
		s.logger.Info("Seeded default categories", log.FieldOperation, log.OpSeed, log.FieldCount, len(seed))
	}

	s.logger.Debug("Store opened",
		log.FieldOperation, log.OpLoad,
		"transactions", len(s.txs),
		"categories", len(s.cats))
	return s, nil
}

func load(ctx context.Context, b Backend, key string, dst any) (bool, error) {
	raw, ok, err := b.Load(ctx, key)
	if err != nil {
		return false, core.Persistence("load "+key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, core.Persistence("decode "+key, err)
	}
	return true, nil
}

func encode(key string, v any) (Entry, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Entry{}, fmt.Errorf("encode %s: %w", key, err)
	}
	return Entry{Key: key, Value: raw}, nil
}

// persist writes one namespace. Once the write starts it is not abandoned
// when the caller's context is cancelled.
func (s *Store) persist(ctx context.Context, key string, v any) error {
	e, err := encode(key, v)
	if err != nil {
		return core.Persistence("save "+key, err)
	}
	if err := s.backend.Save(context.WithoutCancel(ctx), e); err != nil {
		return core.Persistence("save "+key, err)
	}
	return nil
}

// ListTransactions returns all transactions, newest creation first.
func (s *Store) ListTransactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.txs)
}

// AddTransaction validates t, inserts it at the head and persists the list.
// Missing ids are generated. CreatedAt is stamped from the clock when absent
// and always forced past the current head so list order and CreatedAt agree.
func (s *Store) AddTransaction(ctx context.Context, t core.Transaction) ([]core.Transaction, error) {
	t.Category = strings.TrimSpace(t.Category)
	t.Description = strings.TrimSpace(t.Description)
	if err := t.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = s.newID()
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = s.now().UnixMilli()
	}
	if len(s.txs) > 0 && t.CreatedAt <= s.txs[0].CreatedAt {
		t.CreatedAt = s.txs[0].CreatedAt + 1
	}

	next := make([]core.Transaction, 0, len(s.txs)+1)
	next = append(next, t)
	next = append(next, s.txs...)
	if err := s.persist(ctx, KeyTransactions, next); err != nil {
		return nil, err
	}
	s.txs = next
	return clone(next), nil
}

// RemoveTransaction drops the transaction with the given id. Removing an
// unknown id returns the unchanged list.
func (s *Store) RemoveTransaction(ctx context.Context, id string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, removed := without(s.txs, func(t core.Transaction) bool { return t.ID == id })
	if !removed {
		return clone(s.txs), nil
	}
	if err := s.persist(ctx, KeyTransactions, next); err != nil {
		return nil, err
	}
	s.txs = next
	return clone(next), nil
}

func (s *Store) ListCategories() []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.cats)
}

// AddCategory appends c unless a category with the same name and kind
// already exists, in which case the unchanged list is returned.
func (s *Store) AddCategory(ctx context.Context, c core.Category) ([]core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.cats {
		if existing.SameAs(c) {
			return clone(s.cats), nil
		}
	}
	if c.ID == "" {
		c.ID = s.newID()
	}
	next := append(clone(s.cats), c)
	if err := s.persist(ctx, KeyCategories, next); err != nil {
		return nil, err
	}
	s.cats = next
	return clone(next), nil
}

// RemoveCategory drops a category by id. Transactions referencing its name
// are left untouched.
func (s *Store) RemoveCategory(ctx context.Context, id string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, removed := without(s.cats, func(c core.Category) bool { return c.ID == id })
	if !removed {
		return clone(s.cats), nil
	}
	if err := s.persist(ctx, KeyCategories, next); err != nil {
		return nil, err
	}
	s.cats = next
	return clone(next), nil
}

func (s *Store) Currency() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currency
}

func (s *Store) SetCurrency(ctx context.Context, symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return core.ErrBlankCurrency
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(ctx, KeyCurrency, symbol); err != nil {
		return err
	}
	s.currency = symbol
	return nil
}

func (s *Store) SyncConfig() core.SyncConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySyncConfig(s.syncCfg)
}

// copySyncConfig detaches LastSync so callers never alias store state.
func copySyncConfig(c core.SyncConfig) core.SyncConfig {
	if c.LastSync != nil {
		ts := *c.LastSync
		c.LastSync = &ts
	}
	return c
}

func (s *Store) SetSyncConfig(ctx context.Context, cfg core.SyncConfig) error {
	_, err := s.UpdateSyncConfig(ctx, func(c *core.SyncConfig) bool {
		*c = cfg
		return true
	})
	return err
}

// UpdateSyncConfig runs fn on a copy of the current configuration under the
// write lock. When fn returns false nothing is written. The resulting
// configuration is returned either way.
func (s *Store) UpdateSyncConfig(ctx context.Context, fn func(*core.SyncConfig) bool) (core.SyncConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := copySyncConfig(s.syncCfg)
	if !fn(&next) {
		return copySyncConfig(s.syncCfg), nil
	}
	next.FileName = strings.TrimSpace(next.FileName)
	if next.FileName == "" {
		return copySyncConfig(s.syncCfg), core.ErrBlankFileName
	}
	if err := s.persist(ctx, KeySyncConfig, next); err != nil {
		return copySyncConfig(s.syncCfg), err
	}
	s.syncCfg = copySyncConfig(next)
	return next, nil
}

// Snapshot returns a consistent copy of transactions and categories.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Snapshot{Transactions: clone(s.txs), Categories: clone(s.cats)}
}

// ReplaceSnapshot discards the local transactions and categories and installs
// snap in their place with a single backend write.
func (s *Store) ReplaceSnapshot(ctx context.Context, snap core.Snapshot) error {
	snap = snap.Clone()

	txEntry, err := encode(KeyTransactions, snap.Transactions)
	if err != nil {
		return core.Persistence("replace snapshot", err)
	}
	catEntry, err := encode(KeyCategories, snap.Categories)
	if err != nil {
		return core.Persistence("replace snapshot", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Save(context.WithoutCancel(ctx), txEntry, catEntry); err != nil {
		return core.Persistence("replace snapshot", err)
	}
	s.txs = snap.Transactions
	s.cats = snap.Categories
	return nil
}

func clone[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func without[T any](in []T, match func(T) bool) ([]T, bool) {
	out := make([]T, 0, len(in))
	removed := false
	for _, v := range in {
		if match(v) {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out, removed
}
