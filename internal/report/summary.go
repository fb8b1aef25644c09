package report

import (
	"time"

	"monarch/internal/core"
)

// Summary bundles what the dashboard and the reports view show.
type Summary struct {
	Preset   Preset
	Interval Interval

	// Over the whole list.
	Totals core.Totals
	Recent []core.Transaction
	Daily  []core.DayTotals

	// Over the transactions inside Interval.
	Filtered       []core.Transaction
	FilteredTotals core.Totals
	Breakdown      []core.CategoryAmount
}

// Count is the number of transactions inside the interval.
func (s Summary) Count() int { return len(s.Filtered) }

// Summarize computes the dashboard and report figures for preset at now.
func Summarize(list []core.Transaction, now time.Time, preset Preset) Summary {
	interval := RangeFor(preset, now)
	window := DashboardWindow(now)
	filtered := interval.Filter(list)

	return Summary{
		Preset:         preset,
		Interval:       interval,
		Totals:         Totals(list),
		Recent:         Recent(list, RecentLimit),
		Daily:          DailySeries(list, window.Start, window.End),
		Filtered:       filtered,
		FilteredTotals: Totals(filtered),
		Breakdown:      CategoryBreakdown(filtered),
	}
}
