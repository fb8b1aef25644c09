package main

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"monarch/internal/cli"
	"monarch/internal/config"
)

// globals are the flags shared by every command. Empty values leave the
// environment (or its default) in place.
type globals struct {
	EnvFile     string `name:"env-file" default:".env" help:"Environment file to load before reading configuration."`
	DataBackend string `name:"data-backend" help:"Storage backend: memory, file or sqlite (DATA_BACKEND)."`
	DataDir     string `name:"data-dir" help:"Directory of the file backend (DATA_DIR)."`
	SQLitePath  string `name:"sqlite-path" help:"Database file of the sqlite backend (SQLITE_DB_PATH)."`
	LogLevel    string `name:"log-level" help:"debug, info, warn or error (LOG_LEVEL)."`
}

func (g globals) apply(cfg *config.Config) {
	if g.DataBackend != "" {
		cfg.DataBackend = g.DataBackend
	}
	if g.DataDir != "" {
		cfg.DataDir = g.DataDir
	}
	if g.SQLitePath != "" {
		cfg.SQLiteDBPath = g.SQLitePath
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
}

// grammar is the command line of monarch.
type grammar struct {
	Globals globals `embed:""`

	Add        addCmd        `cmd:"" help:"Record an income or an expense."`
	Delete     deleteCmd     `cmd:"" help:"Delete a transaction by id."`
	List       listCmd       `cmd:"" help:"List transactions, latest first."`
	Summary    summaryCmd    `cmd:"" help:"Show totals, the expense breakdown and recent entries."`
	Clear      clearCmd      `cmd:"" help:"Delete every transaction. Settings are kept."`
	Import     importCmd     `cmd:"" help:"Replace all transactions with a backup file."`
	Backup     backupCmd     `cmd:"" help:"Write all transactions to a backup file."`
	Export     exportCmd     `cmd:"" help:"Export transactions as CSV, a printable report or charts."`
	Categories categoriesCmd `cmd:"" help:"List the suggested categories."`
	Currency   currencyCmd   `cmd:"" help:"Show or set the display currency."`
	Theme      themeCmd      `cmd:"" help:"Show, set or toggle the theme."`
}

func main() {
	var commands grammar
	kctx := kong.Parse(&commands,
		kong.Name("monarch"),
		kong.Description("Personal income and expense tracker."))

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	a := newApp(ctx, commands.Globals, os.Stdout, time.Now)
	err := kctx.Run(a)
	kctx.FatalIfErrorf(errors.Join(err, a.close()))
}

// app is what every command's Run receives. Configuration is loaded and the
// store opened on first use, so commands that never touch the data do not
// create it.
type app struct {
	ctx     context.Context
	globals globals
	out     io.Writer
	now     func() time.Time
	session *cli.Session
}

func newApp(ctx context.Context, g globals, out io.Writer, now func() time.Time) *app {
	return &app{ctx: ctx, globals: g, out: out, now: now}
}

func (a *app) open() (*cli.Session, error) {
	if a.session != nil {
		return a.session, nil
	}
	if err := cli.LoadEnvFile(a.globals.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := cli.LoadAndValidateConfig(a.globals.apply)
	if err != nil {
		return nil, err
	}
	logger, err := cli.SetupLogger(cfg.LogLevel, nil)
	if err != nil {
		return nil, err
	}
	session, err := cli.OpenStore(a.ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.session = session
	return session, nil
}

func (a *app) close() error {
	if a.session == nil {
		return nil
	}
	// flush with a fresh context so an interrupt does not lose pending writes
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.session.Close(ctx)
}
