package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"monarch/internal/core"
	"monarch/internal/persistence"
	"monarch/internal/report"
)

func sample() []core.Transaction {
	return []core.Transaction{
		{
			ID: "a1", Type: core.Income, Amount: core.Money{Cents: 100000}, Category: "Salary",
			Date: core.NewDate(2024, 1, 5), CreatedAt: time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC),
		},
		{
			ID: "b2", Type: core.Expense, Amount: core.Money{Cents: 1250}, Category: "Food",
			Date: core.NewDate(2024, 1, 6), Notes: `lunch, with "friends"`,
			CreatedAt: time.Date(2024, 1, 6, 13, 0, 0, 0, time.UTC),
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sample()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if lines[0] != "ID,Date,Type,Category,Amount,Notes" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "a1,2024-01-05,income,Salary,1000," {
		t.Errorf("row 1 = %q", lines[1])
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	want := []string{"b2", "2024-01-06", "expense", "Food", "12.5", `lunch, with "friends"`}
	if !reflect.DeepEqual(records[2], want) {
		t.Errorf("row 2 = %q, want %q", records[2], want)
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "ID,Date,Type,Category,Amount,Notes\n" {
		t.Errorf("empty export = %q", got)
	}
}

func TestFileNames(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)
	tests := []struct{ got, want string }{
		{CSVFileName(now), "monarch_export_2024-03-09.csv"},
		{ReportFileName(now), "monarch_report_2024-03-09.txt"},
		{ChartFileName("categories", now), "monarch_chart_categories_2024-03-09.png"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("file name = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestTruncateNotes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "-"},
		{"short", "short"},
		{strings.Repeat("x", 25), strings.Repeat("x", 25)},
		{strings.Repeat("x", 26), strings.Repeat("x", 25) + "..."},
		{strings.Repeat("é", 30), strings.Repeat("é", 25) + "..."},
	}
	for _, tt := range tests {
		if got := TruncateNotes(tt.in); got != tt.want {
			t.Errorf("TruncateNotes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildDocumentPaginates(t *testing.T) {
	var list []core.Transaction
	for i := 0; i < 30; i++ {
		list = append(list, core.Transaction{
			ID: fmt.Sprint(i), Type: core.Expense, Amount: core.Money{Cents: 100},
			Category: "Food", Date: core.NewDate(2024, 1, 1),
		})
	}
	generated := time.Date(2024, 1, 31, 15, 4, 5, 0, time.UTC)

	doc := BuildDocument(list, core.USD, "monthly", generated, 0)
	if len(doc.Pages) != 2 || len(doc.Pages[0]) != DefaultRowsPerPage || len(doc.Pages[1]) != 5 {
		t.Fatalf("pages = %d (%d, %d)", len(doc.Pages), len(doc.Pages[0]), len(doc.Pages[1]))
	}
	if doc.Totals.Expense.Cents != 3000 {
		t.Errorf("expense total = %d", doc.Totals.Expense.Cents)
	}

	if got := BuildDocument(list, core.USD, "all", generated, 10); len(got.Pages) != 3 {
		t.Errorf("10 rows per page gave %d pages", len(got.Pages))
	}
	if got := BuildDocument(nil, core.USD, "all", generated, 10); len(got.Pages) != 1 || len(got.Pages[0]) != 0 {
		t.Errorf("empty document pages = %+v", got.Pages)
	}
}

func TestDocumentRender(t *testing.T) {
	generated := time.Date(2024, 1, 31, 15, 4, 5, 0, time.UTC)
	doc := BuildDocument(sample(), core.INR, "monthly", generated, 1)

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"MONARCH\n",
		"Generated on Jan 31, 2024, 3:04:05 PM",
		"Range: monthly",
		"Total Income: ₹1,000.00",
		"Total Expense: ₹12.50",
		"Net Balance: ₹987.50",
		"Jan 05, 2024",
		"INCOME",
		"EXPENSE",
		"Page 2 of 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered document missing %q\n%s", want, out)
		}
	}
	if n := strings.Count(out, "\f"); n != 1 {
		t.Errorf("form feeds = %d, want 1", n)
	}
	if strings.Count(out, "Category") != 2 {
		t.Error("table header should repeat on every page")
	}
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestDocumentRenderWriteError(t *testing.T) {
	doc := BuildDocument(sample(), core.USD, "all", time.Now(), 0)
	if err := doc.Render(brokenWriter{}); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Render() error = %v, want disk full", err)
	}
}

func TestWriteBackupRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBackup(&buf, sample()); err != nil {
		t.Fatal(err)
	}
	got, err := persistence.DecodeTransactions(buf.Bytes())
	if err != nil {
		t.Fatalf("backup does not decode: %v", err)
	}
	if !reflect.DeepEqual(got, sample()) {
		t.Errorf("round trip = %+v", got)
	}

	buf.Reset()
	if err := WriteBackup(&buf, nil); err != nil || buf.String() != "[]" {
		t.Errorf("empty backup = %q, %v", buf.String(), err)
	}
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestRenderDailyChart(t *testing.T) {
	series := report.DailySeries(sample(), core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 10))
	var buf bytes.Buffer
	if err := RenderDailyChart(&buf, series, core.USD); err != nil {
		t.Fatalf("RenderDailyChart() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Error("output is not a PNG")
	}

	flat := report.DailySeries(nil, core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 3))
	buf.Reset()
	if err := RenderDailyChart(&buf, flat, core.USD); err != nil {
		t.Errorf("all-zero series error = %v", err)
	}

	one := report.DailySeries(sample(), core.NewDate(2024, 1, 5), core.NewDate(2024, 1, 5))
	if err := RenderDailyChart(&buf, one, core.USD); !errors.Is(err, ErrNotEnoughData) {
		t.Errorf("single day error = %v, want ErrNotEnoughData", err)
	}
}

func TestRenderCategoryChart(t *testing.T) {
	var buf bytes.Buffer
	breakdown := []core.CategoryAmount{
		{Name: "Rent", Amount: core.Money{Cents: 70000}},
		{Name: "Food", Amount: core.Money{Cents: 1250}},
	}
	if err := RenderCategoryChart(&buf, breakdown, core.EUR); err != nil {
		t.Fatalf("RenderCategoryChart() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Error("output is not a PNG")
	}

	zero := []core.CategoryAmount{{Name: "Food"}}
	if err := RenderCategoryChart(&buf, zero, core.EUR); !errors.Is(err, ErrNotEnoughData) {
		t.Errorf("zero breakdown error = %v", err)
	}
	if err := RenderCategoryChart(&buf, nil, core.EUR); !errors.Is(err, ErrNotEnoughData) {
		t.Errorf("empty breakdown error = %v", err)
	}
}
