package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"monarch/internal/core"
	"monarch/internal/report"
)

const (
	DefaultRowsPerPage = 25
	documentTitle      = "MONARCH"
	notesLimit         = 25
	rowDateLayout      = "Jan 02, 2006"
	generatedLayout    = "Jan 2, 2006, 3:04:05 PM"
	pageBreak          = "\f"
)

var tableHeader = []string{"Date", "Category", "Type", "Amount", "Notes"}

// Row is one table line of a Document, already formatted.
type Row struct {
	Date     string
	Category string
	Type     string
	Amount   string
	Notes    string
}

func (r Row) cells() []string {
	return []string{r.Date, r.Category, r.Type, r.Amount, r.Notes}
}

// Document is a printable report: a title block, a summary and the
// transactions split into pages of a fixed number of rows.
type Document struct {
	Title       string
	GeneratedAt time.Time
	RangeLabel  string
	Currency    core.Currency
	Totals      core.Totals
	Pages       [][]Row
}

// BuildDocument lays out list for printing. rowsPerPage below one falls back
// to DefaultRowsPerPage. There is always at least one page.
func BuildDocument(list []core.Transaction, currency core.Currency, rangeLabel string, generatedAt time.Time, rowsPerPage int) Document {
	if rowsPerPage < 1 {
		rowsPerPage = DefaultRowsPerPage
	}

	doc := Document{
		Title:       documentTitle,
		GeneratedAt: generatedAt,
		RangeLabel:  rangeLabel,
		Currency:    currency,
		Totals:      report.Totals(list),
		Pages:       [][]Row{{}},
	}
	for _, t := range list {
		last := len(doc.Pages) - 1
		if len(doc.Pages[last]) == rowsPerPage {
			doc.Pages = append(doc.Pages, []Row{})
			last++
		}
		doc.Pages[last] = append(doc.Pages[last], Row{
			Date:     t.Date.Format(rowDateLayout),
			Category: t.Category,
			Type:     strings.ToUpper(string(t.Type)),
			Amount:   core.FormatMoney(t.Amount, currency),
			Notes:    TruncateNotes(t.Notes),
		})
	}
	return doc
}

// TruncateNotes shortens notes to 25 characters followed by "...". Empty
// notes are shown as "-".
func TruncateNotes(notes string) string {
	if notes == "" {
		return "-"
	}
	runes := []rune(notes)
	if len(runes) <= notesLimit {
		return notes
	}
	return string(runes[:notesLimit]) + "..."
}

// Render writes the document as plain text. Pages are separated by a form feed.
func (d Document) Render(w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("%s\n", d.Title)
	ew.printf("Generated on %s\n", d.GeneratedAt.Format(generatedLayout))
	ew.printf("Range: %s\n\n", d.RangeLabel)
	ew.printf("Summary\n")
	ew.printf("Total Income: %s\n", core.FormatMoney(d.Totals.Income, d.Currency))
	ew.printf("Total Expense: %s\n", core.FormatMoney(d.Totals.Expense, d.Currency))
	ew.printf("Net Balance: %s\n\n", core.FormatMoney(d.Totals.Balance, d.Currency))

	for i, page := range d.Pages {
		if i > 0 {
			ew.printf("%s", pageBreak)
		}
		if ew.err != nil {
			break
		}
		renderTable(ew, page)
		ew.printf("Page %d of %d\n", i+1, len(d.Pages))
	}
	if ew.err != nil {
		return fmt.Errorf("render document: %w", ew.err)
	}
	return nil
}

func renderTable(w io.Writer, rows []Row) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(tableHeader)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
	})
	for _, r := range rows {
		table.Append(r.cells())
	}
	table.Render()
}

// errWriter remembers the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func (e *errWriter) printf(format string, args ...any) {
	fmt.Fprintf(e, format, args...)
}
