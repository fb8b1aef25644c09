package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"monarch/internal/core"
	"monarch/internal/export"
	"monarch/internal/report"
)

type addCmd struct {
	Type     string `arg:"" enum:"income,expense" help:"income or expense."`
	Amount   string `arg:"" help:"Amount, e.g. 250 or 12.50."`
	Category string `arg:"" help:"Category, e.g. Food or Salary."`
	Date     string `help:"Transaction date (YYYY-MM-DD), today when empty."`
	Notes    string `help:"Free text notes."`
}

func (c *addCmd) Run(a *app) error {
	form := core.TransactionForm{
		Type:     c.Type,
		Amount:   c.Amount,
		Category: c.Category,
		Date:     c.Date,
		Notes:    c.Notes,
	}
	draft, err := form.Parse(core.DateOf(a.now()))
	if err != nil {
		return err
	}
	s, err := a.open()
	if err != nil {
		return err
	}
	tx, err := s.Store.Add(a.ctx, draft)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s %s %s on %s (%s)\n",
		tx.Type, core.FormatMoney(tx.Amount, s.Store.Currency()), tx.Category, tx.Date, tx.ID)
	return nil
}

type deleteCmd struct {
	ID string `arg:"" help:"Transaction id."`
}

func (c *deleteCmd) Run(a *app) error {
	s, err := a.open()
	if err != nil {
		return err
	}
	removed, err := s.Store.Delete(a.ctx, c.ID)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintf(a.out, "No transaction with id %s\n", c.ID)
		return nil
	}
	fmt.Fprintf(a.out, "Deleted %s\n", c.ID)
	return nil
}

type listCmd struct {
	Range string `default:"all" help:"daily, monthly, yearly or all."`
	Limit int    `help:"Show at most this many rows, 0 for all."`
}

func (c *listCmd) Run(a *app) error {
	preset, err := report.ParsePreset(c.Range)
	if err != nil {
		return err
	}
	s, err := a.open()
	if err != nil {
		return err
	}
	list := report.RangeFor(preset, a.now()).Filter(s.Store.Transactions())
	n := len(list)
	if c.Limit > 0 && c.Limit < n {
		n = c.Limit
	}
	currency := s.Store.Currency()

	table := tablewriter.NewWriter(a.out)
	table.SetHeader([]string{"ID", "Date", "Type", "Category", "Amount", "Notes"})
	table.SetAutoWrapText(false)
	for _, tx := range report.Recent(list, n) {
		table.Append([]string{
			tx.ID,
			tx.Date.String(),
			string(tx.Type),
			tx.Category,
			core.FormatMoney(tx.Amount, currency),
			export.TruncateNotes(tx.Notes),
		})
	}
	table.Render()
	fmt.Fprintf(a.out, "%d of %d transactions\n", n, len(list))
	return nil
}

type summaryCmd struct {
	Range string `default:"monthly" help:"daily, monthly, yearly or all."`
}

func (c *summaryCmd) Run(a *app) error {
	preset, err := report.ParsePreset(c.Range)
	if err != nil {
		return err
	}
	sess, err := a.open()
	if err != nil {
		return err
	}
	s := report.Summarize(sess.Store.Transactions(), a.now(), preset)
	currency := sess.Store.Currency()
	money := func(m core.Money) string { return core.FormatMoney(m, currency) }

	fmt.Fprintf(a.out, "Net Balance: %s\n", money(s.Totals.Balance))
	fmt.Fprintf(a.out, "Total Income: %s\n", money(s.Totals.Income))
	fmt.Fprintf(a.out, "Total Expenses: %s\n\n", money(s.Totals.Expense))

	fmt.Fprintf(a.out, "Range %s (%s): %d transactions\n", s.Preset, s.Interval, s.Count())
	fmt.Fprintf(a.out, "  Income %s  Expense %s  Net %s\n\n",
		money(s.FilteredTotals.Income), money(s.FilteredTotals.Expense), money(s.FilteredTotals.Balance))

	if len(s.Breakdown) > 0 {
		fmt.Fprintln(a.out, "Expenses by category:")
		for _, ca := range s.Breakdown {
			fmt.Fprintf(a.out, "  %-16s %s\n", ca.Name, money(ca.Amount))
		}
		fmt.Fprintln(a.out)
	}

	fmt.Fprintln(a.out, "Recent transactions:")
	if len(s.Recent) == 0 {
		fmt.Fprintln(a.out, "  none")
	}
	for _, tx := range s.Recent {
		sign := "+"
		if tx.Type == core.Expense {
			sign = "-"
		}
		fmt.Fprintf(a.out, "  %s  %-16s %s%s\n", tx.Date, tx.Category, sign, money(tx.Amount))
	}
	return nil
}

type clearCmd struct {
	Yes bool `help:"Confirm that every transaction should be deleted."`
}

func (c *clearCmd) Run(a *app) error {
	if !c.Yes {
		return errors.New("refusing to clear without --yes")
	}
	s, err := a.open()
	if err != nil {
		return err
	}
	n := s.Store.Len()
	if err := s.Store.ClearAll(a.ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Cleared %d transactions\n", n)
	return nil
}

type importCmd struct {
	File string `arg:"" help:"Backup file to import."`
}

func (c *importCmd) Run(a *app) error {
	s, err := a.open()
	if err != nil {
		return err
	}
	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := s.Store.Import(a.ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d transactions from %s\n", n, c.File)
	return nil
}

type backupCmd struct {
	Out string `default:"monarch_backup.json" help:"Backup file to write."`
}

func (c *backupCmd) Run(a *app) error {
	s, err := a.open()
	if err != nil {
		return err
	}
	path := c.Out
	if path == "" {
		path = export.BackupFileName
	}
	list := s.Store.Transactions()
	if err := writeFile(path, func(f *os.File) error { return export.WriteBackup(f, list) }); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Backed up %d transactions to %s\n", len(list), path)
	return nil
}

type categoriesCmd struct {
	Type string `arg:"" optional:"" help:"income or expense, both when empty."`
}

func (c *categoriesCmd) Run(a *app) error {
	types := []core.TransactionType{core.Income, core.Expense}
	if c.Type != "" {
		t, err := core.ParseTransactionType(c.Type)
		if err != nil {
			return err
		}
		types = []core.TransactionType{t}
	}
	for _, t := range types {
		fmt.Fprintf(a.out, "%s: %s\n", t, strings.Join(core.CategoriesFor(t), ", "))
	}
	return nil
}

type currencyCmd struct {
	Code string `arg:"" optional:"" help:"USD, EUR, GBP, JPY or INR."`
}

func (c *currencyCmd) Run(a *app) error {
	s, err := a.open()
	if err != nil {
		return err
	}
	if c.Code == "" {
		cur := s.Store.Currency()
		fmt.Fprintf(a.out, "%s (%s)\n", cur, cur.Info().Symbol)
		return nil
	}
	cur, err := core.ParseCurrency(c.Code)
	if err != nil {
		return err
	}
	if err := s.Store.SetCurrency(a.ctx, cur); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Currency set to %s\n", cur)
	return nil
}

type themeCmd struct {
	Value string `arg:"" optional:"" help:"dark, light or toggle."`
}

func (c *themeCmd) Run(a *app) error {
	s, err := a.open()
	if err != nil {
		return err
	}
	store := s.Store
	switch strings.ToLower(c.Value) {
	case "":
		fmt.Fprintln(a.out, store.Theme())
		return nil
	case "toggle":
		theme, err := store.ToggleTheme(a.ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Theme set to %s\n", theme)
		return nil
	}
	theme, err := core.ParseTheme(c.Value)
	if err != nil {
		return err
	}
	if err := store.SetTheme(a.ctx, theme); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Theme set to %s\n", theme)
	return nil
}
