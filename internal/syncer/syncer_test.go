package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"saldo/internal/core"
	"saldo/internal/remote/memory"
)

const cred core.Credential = "token"

func sampleSnapshot() core.Snapshot {
	return core.Snapshot{
		Transactions: []core.Transaction{
			{ID: "b", Amount: core.Money{Cents: 1999}, Kind: core.Expense, Category: "Food", Description: "lunch", Date: core.NewDate(2025, 3, 2), CreatedAt: 1741000000002},
			{ID: "a", Amount: core.Money{Cents: 300000}, Kind: core.Income, Category: "Salary", Date: core.NewDate(2025, 3, 1), CreatedAt: 1741000000001},
		},
		Categories: core.DefaultCategories(),
	}
}

func TestPushPullRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		snap core.Snapshot
	}{
		{"populated", sampleSnapshot()},
		{"empty", core.Snapshot{Transactions: []core.Transaction{}, Categories: []core.Category{}}},
		{"zero amount", core.Snapshot{
			Transactions: []core.Transaction{{ID: "z", Kind: core.Expense, Category: "Food", Date: core.NewDate(2024, 2, 29), CreatedAt: 1}},
			Categories:   []core.Category{},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(memory.New(cred))
			ctx := context.Background()

			id, err := e.Push(ctx, tt.snap, "saldo-data.json", cred)
			if err != nil {
				t.Fatalf("push: %v", err)
			}
			got, pulledID, err := e.Pull(ctx, "saldo-data.json", cred)
			if err != nil {
				t.Fatalf("pull: %v", err)
			}
			if pulledID != id {
				t.Errorf("pulled id %q, pushed id %q", pulledID, id)
			}
			if diff := cmp.Diff(tt.snap, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPushOverwritesExistingFile(t *testing.T) {
	r := memory.New(cred)
	e := New(r)
	ctx := context.Background()

	first, err := e.Push(ctx, sampleSnapshot(), "data.json", cred)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Push(ctx, core.Snapshot{}, "data.json", cred)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("second push created a new file: %s vs %s", first, second)
	}
	got, _, err := e.Pull(ctx, "data.json", cred)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Transactions) != 0 {
		t.Errorf("expected last writer to win, got %d transactions", len(got.Transactions))
	}
}

func TestPushRecreatesTrashedFile(t *testing.T) {
	r := memory.New(cred)
	e := New(r)
	ctx := context.Background()

	first, _ := e.Push(ctx, sampleSnapshot(), "data.json", cred)
	r.Trash(first)
	second, err := e.Push(ctx, sampleSnapshot(), "data.json", cred)
	if err != nil {
		t.Fatal(err)
	}
	if second == first {
		t.Error("expected a new file after the old one was trashed")
	}
}

func TestPullErrors(t *testing.T) {
	ctx := context.Background()

	r := memory.New(cred)
	e := New(r)
	if _, _, err := e.Pull(ctx, "missing.json", cred); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, _, err := e.Pull(ctx, "missing.json", "wrong"); !errors.Is(err, core.ErrAuth) {
		t.Errorf("expected auth error, got %v", err)
	}
	if _, _, err := e.Pull(ctx, "missing.json", ""); !errors.Is(err, core.ErrAuth) {
		t.Errorf("expected auth error for empty credential, got %v", err)
	}
	if _, _, err := e.Pull(ctx, " ", cred); !errors.Is(err, core.ErrBlankFileName) {
		t.Errorf("expected blank file name, got %v", err)
	}

	r.Put("corrupt.json", []byte("<html>"))
	_, _, err := e.Pull(ctx, "corrupt.json", cred)
	if !errors.Is(err, core.ErrCorruptDocument) {
		t.Errorf("expected corrupt document, got %v", err)
	}
	if got := errorClass(err); got != "corrupt_document" {
		t.Errorf("errorClass = %q, want corrupt_document", got)
	}

	r.Fail(core.ErrNetwork)
	if _, err := e.Push(ctx, sampleSnapshot(), "data.json", cred); !errors.Is(err, core.ErrNetwork) {
		t.Errorf("expected network error, got %v", err)
	}
}

func TestLocate(t *testing.T) {
	r := memory.New(cred)
	e := New(r)
	ctx := context.Background()

	if _, ok, err := e.Locate(ctx, "data.json", cred); ok || err != nil {
		t.Fatalf("expected not found, ok=%v err=%v", ok, err)
	}
	f := r.Put("data.json", []byte(`{}`))
	got, ok, err := e.Locate(ctx, "data.json", cred)
	if err != nil || !ok || got.ID != f.ID {
		t.Fatalf("locate = %+v ok=%v err=%v", got, ok, err)
	}
}

func TestSpansRecordErrors(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	e := New(memory.New(cred), WithTracerProvider(tp))

	e.Push(context.Background(), sampleSnapshot(), "data.json", "bad")

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans", len(spans))
	}
	if spans[0].Name() != "syncer.Push" || spans[0].Status().Description != "auth" {
		t.Errorf("span %s status %+v", spans[0].Name(), spans[0].Status())
	}
}
