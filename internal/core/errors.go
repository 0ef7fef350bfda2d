package core

import (
	"errors"
	"fmt"
)

// Root error classes. Every error returned by the store, the sync engine and
// the ledger wraps exactly one of these; classify with errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrPersistence = errors.New("persistence error")
	ErrNotFound    = errors.New("not found")
	ErrAuth        = errors.New("not authorized")
	ErrNetwork     = errors.New("network error")
)

var (
	ErrInvalidAmount   = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrNegativeAmount  = fmt.Errorf("%w: negative amount", ErrValidation)
	ErrBlankCategory   = fmt.Errorf("%w: blank category", ErrValidation)
	ErrBlankName       = fmt.Errorf("%w: blank name", ErrValidation)
	ErrInvalidKind     = fmt.Errorf("%w: kind must be income or expense", ErrValidation)
	ErrInvalidDate     = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrBlankCurrency   = fmt.Errorf("%w: blank currency symbol", ErrValidation)
	ErrBlankFileName   = fmt.Errorf("%w: blank file name", ErrValidation)
	ErrCorruptDocument = fmt.Errorf("%w: corrupt remote document", ErrNetwork)
)

// Persistence wraps a backend failure so callers can match ErrPersistence
// while keeping the driver error in the chain.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
