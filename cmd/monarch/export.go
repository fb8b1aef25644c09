package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"monarch/internal/export"
	"monarch/internal/log"
	"monarch/internal/report"
)

type exportOptions struct {
	Range string `default:"monthly" help:"daily, monthly, yearly or all."`
	Out   string `default:"." help:"Directory to write the files to."`
}

type exportCmd struct {
	CSV    exportCSVCmd    `cmd:"" name:"csv" help:"Write a CSV sheet."`
	Report exportReportCmd `cmd:"" help:"Write a paginated text report."`
	Chart  exportChartCmd  `cmd:"" help:"Draw the daily overview and the category breakdown as PNG."`
	All    exportAllCmd    `cmd:"" help:"Write the CSV, the report and the charts at once."`
}

type exportCSVCmd struct {
	Options exportOptions `embed:""`
}

func (c *exportCSVCmd) Run(a *app) error {
	return a.runExports(c.Options, kindCSV)
}

type exportReportCmd struct {
	Options exportOptions `embed:""`
}

func (c *exportReportCmd) Run(a *app) error {
	return a.runExports(c.Options, kindReport)
}

type exportChartCmd struct {
	Options exportOptions `embed:""`
}

func (c *exportChartCmd) Run(a *app) error {
	return a.runExports(c.Options, kindDailyChart, kindCategoryChart)
}

type exportAllCmd struct {
	Options exportOptions `embed:""`
}

func (c *exportAllCmd) Run(a *app) error {
	return a.runExports(c.Options, kindCSV, kindReport, kindDailyChart, kindCategoryChart)
}

type exportKind int

const (
	kindCSV exportKind = iota
	kindReport
	kindDailyChart
	kindCategoryChart
)

// exportJob writes one file from a snapshot of the store.
type exportJob struct {
	file  string
	write func(io.Writer) error
}

func (a *app) exportJobs(opts exportOptions, kinds []exportKind) ([]exportJob, error) {
	preset, err := report.ParsePreset(opts.Range)
	if err != nil {
		return nil, err
	}
	sess, err := a.open()
	if err != nil {
		return nil, err
	}
	now := a.now()
	all := sess.Store.Transactions()
	currency := sess.Store.Currency()
	summary := report.Summarize(all, now, preset)
	rowsPerPage := sess.Config.ReportRowsPerPage

	jobs := make([]exportJob, 0, len(kinds))
	for _, kind := range kinds {
		var job exportJob
		switch kind {
		case kindCSV:
			job = exportJob{export.CSVFileName(now), func(w io.Writer) error {
				return export.WriteCSV(w, summary.Filtered)
			}}
		case kindReport:
			job = exportJob{export.ReportFileName(now), func(w io.Writer) error {
				doc := export.BuildDocument(summary.Filtered, currency, string(preset), now, rowsPerPage)
				return doc.Render(w)
			}}
		case kindDailyChart:
			job = exportJob{export.ChartFileName("daily", now), func(w io.Writer) error {
				return export.RenderDailyChart(w, summary.Daily, currency)
			}}
		case kindCategoryChart:
			job = exportJob{export.ChartFileName("categories", now), func(w io.Writer) error {
				return export.RenderCategoryChart(w, summary.Breakdown, currency)
			}}
		}
		job.file = filepath.Join(opts.Out, job.file)
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// runExports writes the requested files concurrently. A chart with nothing
// to plot is skipped; any other failure aborts the remaining jobs.
func (a *app) runExports(opts exportOptions, kinds ...exportKind) error {
	jobs, err := a.exportJobs(opts, kinds)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.Out, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	sess, err := a.open()
	if err != nil {
		return err
	}
	logger := sess.Logger.WithComponent(log.ComponentExport)
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(a.ctx)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := writeFile(job.file, func(f *os.File) error { return job.write(f) })
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, export.ErrNotEnoughData):
				logger.WarnContext(ctx, "Skipped empty chart", log.FieldOperation, log.OpExport, log.FieldPath, job.file)
				fmt.Fprintf(a.out, "Skipped %s: %v\n", job.file, err)
				return nil
			case err != nil:
				return err
			}
			logger.InfoContext(ctx, "Export written", log.FieldOperation, log.OpExport, log.FieldPath, job.file)
			fmt.Fprintf(a.out, "Wrote %s\n", job.file)
			return nil
		})
	}
	return g.Wait()
}

// writeFile creates path and fills it with fn. The file is removed when fn fails.
func writeFile(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
