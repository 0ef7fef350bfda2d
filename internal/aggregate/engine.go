package aggregate

import (
	"time"

	"saldo/internal/core"
)

// TransactionLister is the read side of the record store.
type TransactionLister interface {
	ListTransactions() []core.Transaction
}

// Engine binds the pure functions to a live transaction source.
type Engine struct {
	src TransactionLister
}

func NewEngine(src TransactionLister) *Engine {
	return &Engine{src: src}
}

func (e *Engine) Summary() core.Summary {
	return Summarize(e.src.ListTransactions())
}

func (e *Engine) Daily(now time.Time) core.DailyBreakdown {
	return Daily(e.src.ListTransactions(), now)
}

func (e *Engine) Period(p core.Period, now time.Time) ([]core.CategoryAmount, error) {
	return ByCategory(e.src.ListTransactions(), p, now)
}
