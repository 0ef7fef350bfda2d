// Package parser turns untrusted partial records into a pre-filled form.
// Nothing a draft carries is trusted: each field is validated on its own and
// dropped when it does not hold up. A draft never becomes a transaction
// without the user submitting the form.
package parser

import (
	"context"
	"strings"
	"time"

	"saldo/internal/core"
)

// Parser extracts a draft from free text. Implementations return an empty
// draft together with any error.
type Parser interface {
	Parse(ctx context.Context, input string, categories []core.Category, now time.Time) (core.Draft, error)
}

// Form is what the entry screen is pre-filled with.
type Form struct {
	Amount      *core.Money `json:"amount,omitempty"`
	Kind        core.Kind   `json:"type"`
	Category    string      `json:"category,omitempty"`
	Description string      `json:"description"`
	Date        core.Date   `json:"date"`
}

// Normalize validates each draft field independently. Kind defaults to
// expense and date defaults to the calendar day of now. A category survives
// only when it names an existing category of the resolved kind, and is
// rewritten to that category's spelling.
func Normalize(d core.Draft, now time.Time, categories []core.Category) Form {
	f := Form{Kind: core.Expense, Date: core.DateOf(now)}

	if d.Amount != nil && *d.Amount >= 0 {
		if m, err := core.NewMoney(*d.Amount); err == nil {
			f.Amount = &m
		}
	}
	if d.Kind != nil {
		if k := core.Kind(strings.ToLower(strings.TrimSpace(*d.Kind))); k.Valid() {
			f.Kind = k
		}
	}
	if d.Category != nil {
		want := core.Category{Name: *d.Category, Kind: f.Kind}
		for _, c := range categories {
			if c.SameAs(want) {
				f.Category = c.Name
				break
			}
		}
	}
	if d.Description != nil {
		f.Description = strings.TrimSpace(*d.Description)
	}
	if d.Date != nil {
		if day, err := core.ParseDate(*d.Date); err == nil {
			f.Date = day
		}
	}
	return f
}

// Complete reports whether the form could be submitted as is.
func (f Form) Complete() bool {
	return f.Amount != nil && f.Category != ""
}

// Transaction converts the form into a transaction ready for validation by
// the store.
func (f Form) Transaction() core.Transaction {
	t := core.Transaction{
		Kind:        f.Kind,
		Category:    f.Category,
		Description: f.Description,
		Date:        f.Date,
	}
	if f.Amount != nil {
		t.Amount = *f.Amount
	}
	return t
}
