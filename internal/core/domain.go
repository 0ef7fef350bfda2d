package core

import (
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// DefaultFileName is the remote document name used until the user picks one.
const DefaultFileName = "saldo-data.json"

// DefaultCurrency is the display symbol used when none has been stored.
const DefaultCurrency = "$"

type (
	Kind string

	// Transaction is a single income or expense entry. Amount is always a
	// non-negative magnitude; Kind carries the direction.
	Transaction struct {
		ID          string `json:"id"`
		Amount      Money  `json:"amount"`
		Kind        Kind   `json:"type"`
		Category    string `json:"category"` // matched against Category.Name by value
		Description string `json:"description"`
		Date        Date   `json:"date"`
		CreatedAt   int64  `json:"createdAt"` // unix millis, insertion-order key
	}

	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Kind  Kind   `json:"type"`
		Color string `json:"color"`
	}

	// Snapshot is the unit of whole-document sync.
	Snapshot struct {
		Transactions []Transaction `json:"transactions"`
		Categories   []Category    `json:"categories"`
	}

	// SyncConfig describes the connection to the remote document.
	SyncConfig struct {
		Connected  bool       `json:"isConnected"`
		Credential Credential `json:"credential"`
		FileName   string     `json:"fileName"`
		FileID     string     `json:"fileId,omitempty"`
		LastSync   *time.Time `json:"lastSync,omitempty"`
	}
)

// DefaultCategories is the seed set installed on first access.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Food", Kind: Expense, Color: "#ef4444"},
		{ID: "2", Name: "Transport", Kind: Expense, Color: "#f97316"},
		{ID: "3", Name: "Shopping", Kind: Expense, Color: "#ec4899"},
		{ID: "4", Name: "Bills", Kind: Expense, Color: "#6366f1"},
		{ID: "5", Name: "Entertainment", Kind: Expense, Color: "#8b5cf6"},
		{ID: "6", Name: "Salary", Kind: Income, Color: "#22c55e"},
		{ID: "7", Name: "Freelance", Kind: Income, Color: "#10b981"},
	}
}

// DefaultSyncConfig returns a disconnected configuration.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{FileName: DefaultFileName}
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrBlankCategory
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrBlankName
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

// SameAs reports whether two categories collide under the (name, kind)
// uniqueness rule. Names compare case-insensitively.
func (c Category) SameAs(o Category) bool {
	return c.Kind == o.Kind && strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(o.Name))
}

// CanSync reports whether background pushes should be attempted.
func (c SyncConfig) CanSync() bool {
	return c.Connected && c.Credential != "" && strings.TrimSpace(c.FileName) != ""
}

// Clone returns a deep copy so callers never share slices with the store.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Transactions: make([]Transaction, len(s.Transactions)),
		Categories:   make([]Category, len(s.Categories)),
	}
	copy(out.Transactions, s.Transactions)
	copy(out.Categories, s.Categories)
	return out
}
