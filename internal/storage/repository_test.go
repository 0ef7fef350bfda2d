package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"saldo/internal/core"
	"saldo/internal/store"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "saldo.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestRepositoryLoadMissing(t *testing.T) {
	repo, _ := newTestRepo(t)
	if _, ok, err := repo.Load(context.Background(), store.KeyTransactions); ok || err != nil {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}
}

func TestRepositorySaveBatchAndOverwrite(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	err := repo.Save(ctx,
		store.Entry{Key: store.KeyTransactions, Value: []byte(`[]`)},
		store.Entry{Key: store.KeyCategories, Value: []byte(`[{"id":"1"}]`)},
	)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, store.Entry{Key: store.KeyCategories, Value: []byte(`[]`)}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	tests := map[string]string{
		store.KeyTransactions: `[]`,
		store.KeyCategories:   `[]`,
	}
	for key, want := range tests {
		got, ok, err := repo.Load(ctx, key)
		if err != nil || !ok {
			t.Fatalf("load %s: ok=%v err=%v", key, ok, err)
		}
		if string(got) != want {
			t.Errorf("load %s = %s, want %s", key, got, want)
		}
	}
}

func TestRepositoryPersistsAcrossReopen(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()
	if err := repo.Save(ctx, store.Entry{Key: store.KeyCurrency, Value: []byte(`"£"`)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	repo.Close()

	reopened, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, ok, err := reopened.Load(ctx, store.KeyCurrency)
	if err != nil || !ok || string(got) != `"£"` {
		t.Fatalf("load after reopen = %s ok=%v err=%v", got, ok, err)
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	repo, _ := newTestRepo(t)
	v, err := RunMigrations(repo.db)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if v != 1 {
		t.Errorf("version = %d, want 1", v)
	}
}

func TestRepositorySaveCancelledContext(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := repo.Save(ctx, store.Entry{Key: store.KeyCurrency, Value: []byte(`"€"`)}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if _, ok, _ := repo.Load(context.Background(), store.KeyCurrency); ok {
		t.Error("cancelled save must not be visible")
	}
}

func TestRepositoryExclusiveOwner(t *testing.T) {
	repo, path := newTestRepo(t)

	second, err := NewSQLiteRepository(path)
	if !errors.Is(err, ErrLocked) {
		if second != nil {
			second.Close()
		}
		t.Fatalf("second open: got %v, want ErrLocked", err)
	}

	if err := repo.Save(context.Background(), store.Entry{Key: store.KeyCurrency, Value: []byte(`"$"`)}); err != nil {
		t.Fatalf("owner save after rejected open: %v", err)
	}

	repo.Close()
	reopened, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open after owner closed: %v", err)
	}
	reopened.Close()
}

func TestStoresCannotShareDatabase(t *testing.T) {
	ctx := context.Background()
	repo, path := newTestRepo(t)
	st, err := store.Open(ctx, repo)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	tx := core.Transaction{Amount: core.Money{Cents: 500}, Kind: core.Expense, Category: "Food", Date: core.NewDate(2025, 3, 1)}
	if _, err := st.AddTransaction(ctx, tx); err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := NewSQLiteRepository(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("second owner: got %v, want ErrLocked", err)
	}

	if _, err := st.AddTransaction(ctx, tx); err != nil {
		t.Fatalf("second add: %v", err)
	}
	repo.Close()

	reopened, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	again, err := store.Open(ctx, reopened)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	if got := len(again.ListTransactions()); got != 2 {
		t.Errorf("persisted transactions = %d, want 2", got)
	}
}
