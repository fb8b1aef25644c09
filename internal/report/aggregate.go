// Package report derives totals, series and breakdowns from a transaction
// list. Every function is pure: the same input always gives the same output.
package report

import (
	"cmp"
	"slices"

	"monarch/internal/core"
)

// Totals sums income and expense. Balance is income minus expense.
func Totals(list []core.Transaction) core.Totals {
	var t core.Totals
	for _, tx := range list {
		switch tx.Type {
		case core.Income:
			t.Income = t.Income.Add(tx.Amount)
		case core.Expense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}

// DailySeries returns one bucket per calendar day in [start, end], ascending.
// Days without transactions are present with zero sums. The result is empty
// when end is before start.
func DailySeries(list []core.Transaction, start, end core.Date) []core.DayTotals {
	if end.Before(start.Time) {
		return []core.DayTotals{}
	}

	byDay := make(map[string]*core.DayTotals)
	for _, tx := range list {
		if !inRange(tx.Date, start, end) {
			continue
		}
		key := tx.Date.String()
		b, ok := byDay[key]
		if !ok {
			b = &core.DayTotals{Date: tx.Date}
			byDay[key] = b
		}
		addTo(&b.Income, &b.Expense, tx)
	}

	series := make([]core.DayTotals, 0, start.DaysUntil(end)+1)
	for d := start; !d.After(end.Time); d = d.AddDays(1) {
		if b, ok := byDay[d.String()]; ok {
			series = append(series, *b)
			continue
		}
		series = append(series, core.DayTotals{Date: d})
	}
	return series
}

// MonthlySeries returns one bucket per calendar month touched by [start, end].
// Only transactions dated inside [start, end] are counted.
func MonthlySeries(list []core.Transaction, start, end core.Date) []core.PeriodTotals {
	if end.Before(start.Time) {
		return []core.PeriodTotals{}
	}

	first := monthStart(start)
	var series []core.PeriodTotals
	for m := first; !m.After(end.Time); m = addMonths(m, 1) {
		series = append(series, core.PeriodTotals{Start: m, Label: m.Format("Jan 2006")})
	}
	for _, tx := range list {
		if !inRange(tx.Date, start, end) {
			continue
		}
		i := monthsBetween(first, tx.Date)
		addTo(&series[i].Income, &series[i].Expense, tx)
	}
	return series
}

// YearlySeries returns one bucket per calendar year touched by [start, end].
func YearlySeries(list []core.Transaction, start, end core.Date) []core.PeriodTotals {
	if end.Before(start.Time) {
		return []core.PeriodTotals{}
	}

	series := make([]core.PeriodTotals, 0, end.Year()-start.Year()+1)
	for y := start.Year(); y <= end.Year(); y++ {
		s := core.NewDate(y, 1, 1)
		series = append(series, core.PeriodTotals{Start: s, Label: s.Format("2006")})
	}
	for _, tx := range list {
		if !inRange(tx.Date, start, end) {
			continue
		}
		i := tx.Date.Year() - start.Year()
		addTo(&series[i].Income, &series[i].Expense, tx)
	}
	return series
}

// FilterByInterval keeps the transactions dated within [start, end], both
// ends inclusive, in their original order.
func FilterByInterval(list []core.Transaction, start, end core.Date) []core.Transaction {
	out := []core.Transaction{}
	for _, tx := range list {
		if inRange(tx.Date, start, end) {
			out = append(out, tx)
		}
	}
	return out
}

// CategoryBreakdown groups expenses by category, largest total first.
// Categories with equal totals keep the order in which they were first seen.
func CategoryBreakdown(list []core.Transaction) []core.CategoryAmount {
	index := make(map[string]int)
	out := []core.CategoryAmount{}
	for _, tx := range list {
		if tx.Type != core.Expense {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, core.CategoryAmount{Name: tx.Category})
		}
		out[i].Amount = out[i].Amount.Add(tx.Amount)
	}
	slices.SortStableFunc(out, func(a, b core.CategoryAmount) int {
		return cmp.Compare(b.Amount.Cents, a.Amount.Cents)
	})
	return out
}

// Recent returns up to n transactions, latest date first. Same-day entries are
// ordered by creation time, newest first, and then by their list position.
func Recent(list []core.Transaction, n int) []core.Transaction {
	if n <= 0 {
		return []core.Transaction{}
	}
	sorted := slices.Clone(list)
	slices.SortStableFunc(sorted, func(a, b core.Transaction) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	if sorted == nil {
		sorted = []core.Transaction{}
	}
	return sorted
}

func inRange(d, start, end core.Date) bool {
	return !d.Before(start.Time) && !d.After(end.Time)
}

func addTo(income, expense *core.Money, tx core.Transaction) {
	switch tx.Type {
	case core.Income:
		*income = income.Add(tx.Amount)
	case core.Expense:
		*expense = expense.Add(tx.Amount)
	}
}

func monthStart(d core.Date) core.Date {
	return core.NewDate(d.Year(), int(d.Month()), 1)
}

func monthsBetween(from, to core.Date) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
