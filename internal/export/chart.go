package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"monarch/internal/core"
)

// ErrNotEnoughData is returned when a chart would have nothing to plot.
var ErrNotEnoughData = errors.New("not enough data to plot")

const (
	chartWidth  = 1024
	chartHeight = 400
)

var (
	incomeColor  = drawing.ColorFromHex("22C55E")
	expenseColor = drawing.ColorFromHex("EF4444")

	// slice colours, cycled
	categoryColors = []drawing.Color{
		drawing.ColorFromHex("F5B700"),
		drawing.ColorFromHex("EF4444"),
		drawing.ColorFromHex("22C55E"),
		drawing.ColorFromHex("3B82F6"),
		drawing.ColorFromHex("A855F7"),
		drawing.ColorFromHex("EC4899"),
		drawing.ColorFromHex("64748B"),
	}
)

// RenderDailyChart draws income and expense per day as two lines and writes
// the PNG to w. The series needs at least two days.
func RenderDailyChart(w io.Writer, series []core.DayTotals, currency core.Currency) error {
	if len(series) < 2 {
		return ErrNotEnoughData
	}

	days := make([]time.Time, len(series))
	income := make([]float64, len(series))
	expense := make([]float64, len(series))
	var top float64
	for i, b := range series {
		days[i] = b.Date.Time
		income[i] = b.Income.Float()
		expense[i] = b.Expense.Float()
		top = max(top, income[i], expense[i])
	}
	if top == 0 {
		// a flat line still needs a non-empty range
		top = 1
	}

	graph := chart.Chart{
		Title:  "Monthly Overview",
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("Jan 02"),
		},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: 0, Max: top * 1.1},
			ValueFormatter: moneyFormatter(currency),
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Income",
				XValues: days,
				YValues: income,
				Style:   chart.Style{StrokeColor: incomeColor, StrokeWidth: 2},
			},
			chart.TimeSeries{
				Name:    "Expense",
				XValues: days,
				YValues: expense,
				Style:   chart.Style{StrokeColor: expenseColor, StrokeWidth: 2},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render daily chart: %w", err)
	}
	return nil
}

// RenderCategoryChart draws the expense breakdown as a pie and writes the PNG
// to w. Categories with a zero total are left out.
func RenderCategoryChart(w io.Writer, breakdown []core.CategoryAmount, currency core.Currency) error {
	var values []chart.Value
	for _, c := range breakdown {
		if c.Amount.Cents <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %s", c.Name, core.FormatMoney(c.Amount, currency)),
			Value: c.Amount.Float(),
			Style: chart.Style{FillColor: categoryColors[len(values)%len(categoryColors)]},
		})
	}
	if len(values) == 0 {
		return ErrNotEnoughData
	}

	pie := chart.PieChart{
		Title:  "Expenses by Category",
		Width:  chartHeight * 2,
		Height: chartHeight * 2,
		Values: values,
	}
	if err := pie.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render category chart: %w", err)
	}
	return nil
}

func moneyFormatter(currency core.Currency) chart.ValueFormatter {
	return func(v interface{}) string {
		if f, ok := v.(float64); ok {
			return core.FormatMoney(core.Money{Cents: int64(math.Round(f * 100))}, currency)
		}
		return ""
	}
}
