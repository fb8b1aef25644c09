// Package export turns a transaction list into files a user can take away:
// a CSV sheet, a paginated text report, PNG charts and a JSON backup.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"monarch/internal/core"
	"monarch/internal/persistence"
)

const (
	BackupFileName = "monarch_backup.json"
	fileDateLayout = "2006-01-02"
)

// CSVHeader is the first row of every CSV export.
var CSVHeader = []string{"ID", "Date", "Type", "Category", "Amount", "Notes"}

func CSVFileName(now time.Time) string {
	return "monarch_export_" + now.Format(fileDateLayout) + ".csv"
}

func ReportFileName(now time.Time) string {
	return "monarch_report_" + now.Format(fileDateLayout) + ".txt"
}

// ChartFileName names a chart export, kind being "daily" or "categories".
func ChartFileName(kind string, now time.Time) string {
	return "monarch_chart_" + kind + "_" + now.Format(fileDateLayout) + ".png"
}

// WriteCSV writes a header row and one row per transaction, in list order.
// Fields containing commas, quotes or newlines are quoted.
func WriteCSV(w io.Writer, list []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range list {
		row := []string{
			t.ID,
			t.Date.String(),
			string(t.Type),
			t.Category,
			t.Amount.String(),
			t.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteBackup writes list in the persisted document format so that it can be
// read back with the store's Import.
func WriteBackup(w io.Writer, list []core.Transaction) error {
	data, err := persistence.EncodeTransactions(list)
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}
