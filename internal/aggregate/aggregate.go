// Package aggregate derives dashboard figures from a transaction list.
//
// All functions are pure: they read the slice they are given and a caller
// supplied "now", so results are reproducible. Calendar days are taken in the
// location of now.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"saldo/internal/core"
)

// WindowDays is the length of the daily breakdown.
const WindowDays = 7

// Summarize totals income and expense over every transaction.
func Summarize(txs []core.Transaction) core.Summary {
	var s core.Summary
	for _, t := range txs {
		switch t.Kind {
		case core.Income:
			s.Income = s.Income.Add(t.Amount)
		case core.Expense:
			s.Expense = s.Expense.Add(t.Amount)
		}
	}
	s.Net = s.Income.Sub(s.Expense)
	return s
}

// Daily buckets expenses per category for the seven calendar days ending
// today, oldest first. Days without expenses are present with a zero total.
// Keys are the categories seen in the window, in first-seen order.
func Daily(txs []core.Transaction, now time.Time) core.DailyBreakdown {
	today := core.DateOf(now)
	first := today.AddDays(-(WindowDays - 1))

	out := core.DailyBreakdown{
		Days: make([]core.DayBucket, WindowDays),
		Keys: []string{},
	}
	index := make(map[string]int, WindowDays)
	for i := range out.Days {
		d := first.AddDays(i)
		out.Days[i] = core.DayBucket{
			Date:       d,
			Label:      d.Weekday().String()[:3],
			ByCategory: map[string]core.Money{},
		}
		index[d.String()] = i
	}

	// Walk day by day so key order follows the calendar, not list order.
	perDay := make([][]core.Transaction, WindowDays)
	for _, t := range txs {
		if t.Kind != core.Expense {
			continue
		}
		if i, ok := index[t.Date.String()]; ok {
			perDay[i] = append(perDay[i], t)
		}
	}
	seen := make(map[string]bool)
	for i, dayTxs := range perDay {
		b := &out.Days[i]
		for _, t := range dayTxs {
			b.ByCategory[t.Category] = b.ByCategory[t.Category].Add(t.Amount)
			b.Total = b.Total.Add(t.Amount)
			if !seen[t.Category] {
				seen[t.Category] = true
				out.Keys = append(out.Keys, t.Category)
			}
		}
	}
	return out
}

// Window returns the inclusive calendar-day bounds of a period.
//
//	week:  [today-7, today]
//	month: first to last day of the month containing now
func Window(p core.Period, now time.Time) (from, to core.Date, err error) {
	today := core.DateOf(now)
	switch p {
	case core.PeriodWeek:
		return today.AddDays(-WindowDays), today, nil
	case core.PeriodMonth:
		start := core.NewDate(today.Year(), int(today.Month()), 1)
		return start, core.DateOf(start.AddDate(0, 1, -1)), nil
	default:
		return core.Date{}, core.Date{}, fmt.Errorf("%w: unknown period %q", core.ErrValidation, p)
	}
}

// ByCategory sums expenses whose event day falls in the period, grouped by
// category name and sorted by amount descending.
//
// Equal amounts keep the order in which their category was first seen while
// walking txs. Callers passing the store's newest-first list therefore get
// the most recently used category first among ties. This is not a strict
// total order; it is only deterministic for a given input order.
func ByCategory(txs []core.Transaction, p core.Period, now time.Time) ([]core.CategoryAmount, error) {
	from, to, err := Window(p, now)
	if err != nil {
		return nil, err
	}

	out := []core.CategoryAmount{}
	pos := make(map[string]int)
	for _, t := range txs {
		if t.Kind != core.Expense || t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		i, ok := pos[t.Category]
		if !ok {
			i = len(out)
			pos[t.Category] = i
			out = append(out, core.CategoryAmount{Name: t.Category})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	return out, nil
}
