// Package cli holds the start-up steps shared by the monarch commands:
// environment, logging, configuration and opening the store.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"monarch/internal/backend"
	"monarch/internal/config"
	"monarch/internal/log"
	"monarch/internal/persistence"
	"monarch/internal/services"
)

// LoadEnvFile loads a .env file for local use. A missing file is fine.
func LoadEnvFile(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// SetupLogger builds the application logger writing to out (stderr when nil)
// at the given level, and installs it as the slog default.
func SetupLogger(level string, out io.Writer) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = os.Stderr
	}
	logger := log.New(log.Config{Level: lvl, Component: log.ComponentCLI, Output: out})
	log.SetDefault(logger)
	return logger, nil
}

// LoadAndValidateConfig reads the environment, applies overrides and validates the result.
func LoadAndValidateConfig(overrides ...func(*config.Config)) (*config.Config, error) {
	cfg := config.Load()
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Session is an open store together with what must be released after use.
type Session struct {
	Store   *services.TransactionStore
	Config  *config.Config
	Logger  *log.Logger
	backend *backend.BackendResult
}

// OpenStore creates the configured backend and loads the store from it.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Session, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	opts := []services.Option{services.WithLogger(logger)}
	if result.Notifier != nil {
		opts = append(opts, services.WithNotifier(result.Notifier))
	}
	store := services.NewTransactionStore(ctx, persistence.New(result.Store, logger), opts...)

	return &Session{Store: store, Config: cfg, Logger: logger, backend: result}, nil
}

// Close flushes the store and releases the backend.
func (s *Session) Close(ctx context.Context) error {
	flushErr := s.Store.Close(ctx)
	if err := s.backend.Close(); err != nil {
		s.Logger.LogError(ctx, "Failed to release backend", err, log.ErrorTypeStorage, log.OpShutdown, nil)
		return errors.Join(flushErr, err)
	}
	return flushErr
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
