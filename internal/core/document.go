package core

import (
	"encoding/json"
	"fmt"
)

// EncodeSnapshot renders the remote document: one object holding every
// transaction and every category.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	if s.Transactions == nil {
		s.Transactions = []Transaction{}
	}
	if s.Categories == nil {
		s.Categories = []Category{}
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// DecodeSnapshot parses a remote document. Missing arrays decode as empty.
func DecodeSnapshot(b []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrCorruptDocument, err)
	}
	if s.Transactions == nil {
		s.Transactions = []Transaction{}
	}
	if s.Categories == nil {
		s.Categories = []Category{}
	}
	return s, nil
}
