package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"monarch/internal/core"
)

// Preset names one of the report ranges.
type Preset string

const (
	Daily   Preset = "daily"
	Monthly Preset = "monthly"
	Yearly  Preset = "yearly"
	All     Preset = "all"
)

// DefaultPreset is the range the reports open with.
const DefaultPreset = Monthly

// RecentLimit is how many entries the dashboard lists.
const RecentLimit = 5

var ErrUnknownPreset = errors.New("unknown range preset")

// Presets lists the presets in display order.
func Presets() []Preset {
	return []Preset{Daily, Monthly, Yearly, All}
}

func ParsePreset(s string) (Preset, error) {
	p := Preset(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return DefaultPreset, nil
	}
	for _, known := range Presets() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPreset, s)
}

// Interval is an inclusive range of calendar dates. The zero Interval is
// unbounded and contains every date.
type Interval struct {
	Start core.Date
	End   core.Date
}

func (i Interval) Unbounded() bool {
	return i.Start.IsZero() && i.End.IsZero()
}

func (i Interval) Contains(d core.Date) bool {
	return i.Unbounded() || inRange(d, i.Start, i.End)
}

// Filter applies FilterByInterval, or copies list when i is unbounded.
func (i Interval) Filter(list []core.Transaction) []core.Transaction {
	if i.Unbounded() {
		return append([]core.Transaction{}, list...)
	}
	return FilterByInterval(list, i.Start, i.End)
}

func (i Interval) String() string {
	if i.Unbounded() {
		return "all time"
	}
	return i.Start.String() + " to " + i.End.String()
}

// RangeFor resolves a preset against now: today, the current month, the
// current year, or everything.
func RangeFor(p Preset, now time.Time) Interval {
	today := core.DateOf(now)
	switch p {
	case Daily:
		return Interval{Start: today, End: today}
	case Yearly:
		return Interval{
			Start: core.NewDate(today.Year(), 1, 1),
			End:   core.NewDate(today.Year(), 12, 31),
		}
	case All:
		return Interval{}
	default:
		start := monthStart(today)
		return Interval{Start: start, End: addMonths(start, 1).AddDays(-1)}
	}
}

// DashboardWindow is the range of the dashboard chart: the same day one month
// back through today.
func DashboardWindow(now time.Time) Interval {
	today := core.DateOf(now)
	return Interval{Start: addMonths(today, -1), End: today}
}

// addMonths moves d by n calendar months, clamping to the last day of the
// target month (Mar 31 minus one month is Feb 28 or 29).
func addMonths(d core.Date, n int) core.Date {
	first := time.Date(d.Year(), d.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	day := d.Day()
	if day > last {
		day = last
	}
	return core.NewDate(first.Year(), int(first.Month()), day)
}
