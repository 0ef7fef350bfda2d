package parser

import (
	"math"
	"testing"
	"time"

	"saldo/internal/core"
)

func ptr[T any](v T) *T { return &v }

var now = time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC)

func TestNormalize(t *testing.T) {
	cats := core.DefaultCategories()
	tests := []struct {
		name  string
		draft core.Draft
		check func(t *testing.T, f Form)
	}{
		{
			name:  "empty draft uses defaults",
			draft: core.Draft{},
			check: func(t *testing.T, f Form) {
				if f.Amount != nil || f.Kind != core.Expense || f.Category != "" || f.Date.String() != "2025-03-12" {
					t.Errorf("unexpected form %+v", f)
				}
				if f.Complete() {
					t.Error("empty form must not be complete")
				}
			},
		},
		{
			name: "full draft",
			draft: core.Draft{
				Amount:      ptr(12.345),
				Kind:        ptr("Expense"),
				Category:    ptr("food"),
				Description: ptr("  pizza  "),
				Date:        ptr("2025-03-10T00:00:00.000Z"),
			},
			check: func(t *testing.T, f Form) {
				if f.Amount == nil || f.Amount.Cents != 1235 {
					t.Errorf("amount = %v", f.Amount)
				}
				if f.Category != "Food" || f.Description != "pizza" || f.Date.String() != "2025-03-10" {
					t.Errorf("unexpected form %+v", f)
				}
				if !f.Complete() {
					t.Error("form should be complete")
				}
			},
		},
		{
			name:  "negative amount dropped",
			draft: core.Draft{Amount: ptr(-5.0)},
			check: func(t *testing.T, f Form) {
				if f.Amount != nil {
					t.Errorf("amount = %v", f.Amount)
				}
			},
		},
		{
			name:  "NaN amount dropped",
			draft: core.Draft{Amount: ptr(math.NaN())},
			check: func(t *testing.T, f Form) {
				if f.Amount != nil {
					t.Errorf("amount = %v", f.Amount)
				}
			},
		},
		{
			name:  "out of range amount dropped",
			draft: core.Draft{Amount: ptr(1e300)},
			check: func(t *testing.T, f Form) {
				if f.Amount != nil {
					t.Errorf("amount = %v", f.Amount)
				}
			},
		},
		{
			name:  "unknown kind falls back to expense",
			draft: core.Draft{Kind: ptr("gift")},
			check: func(t *testing.T, f Form) {
				if f.Kind != core.Expense {
					t.Errorf("kind = %q", f.Kind)
				}
			},
		},
		{
			name:  "category of the other kind dropped",
			draft: core.Draft{Kind: ptr("income"), Category: ptr("Food")},
			check: func(t *testing.T, f Form) {
				if f.Kind != core.Income || f.Category != "" {
					t.Errorf("unexpected form %+v", f)
				}
			},
		},
		{
			name:  "unknown category dropped",
			draft: core.Draft{Category: ptr("Other")},
			check: func(t *testing.T, f Form) {
				if f.Category != "" {
					t.Errorf("category = %q", f.Category)
				}
			},
		},
		{
			name:  "garbage date falls back to today",
			draft: core.Draft{Date: ptr("next tuesday")},
			check: func(t *testing.T, f Form) {
				if f.Date.String() != "2025-03-12" {
					t.Errorf("date = %s", f.Date)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Normalize(tt.draft, now, cats))
		})
	}
}

func TestFormTransaction(t *testing.T) {
	f := Normalize(core.Draft{Amount: ptr(3000.0), Kind: ptr("income"), Category: ptr("Salary")}, now, core.DefaultCategories())
	tx := f.Transaction()
	if err := tx.Validate(); err != nil {
		t.Fatalf("complete form should validate: %v", err)
	}
	if tx.Amount.Cents != 300000 || tx.Kind != core.Income {
		t.Errorf("unexpected transaction %+v", tx)
	}
}
