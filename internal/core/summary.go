package core

// Totals holds the income/expense sums of a set of transactions.
type Totals struct {
	Income  Money
	Expense Money
	Balance Money
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// DayTotals is one bucket of a daily series.
type DayTotals struct {
	Date    Date
	Income  Money
	Expense Money
}

// PeriodTotals is one bucket of a monthly or yearly series. Start is the first
// day of the period.
type PeriodTotals struct {
	Start   Date
	Label   string
	Income  Money
	Expense Money
}

// Net returns income minus expense for the period.
func (p PeriodTotals) Net() Money {
	return p.Income.Sub(p.Expense)
}
