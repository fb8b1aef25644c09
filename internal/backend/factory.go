package backend

import (
	"context"
	"errors"
	"fmt"

	"monarch/internal/amqp"
	"monarch/internal/log"
	"monarch/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend opens the configured blob store and, when an AMQP URL is
// set, connects the change notifier. A broker that cannot be reached only
// disables notifications.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case MemoryBackend:
		result = f.createMemoryBackend(ctx)
	case FileBackend:
		result, err = f.createFileBackend(ctx, config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.AMQPURL != "" {
		f.attachNotifier(ctx, config, result)
	}
	return result, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context) *BackendResult {
	f.logger.InfoContext(ctx, "Initialized memory backend", log.FieldBackend, MemoryBackend)
	return &BackendResult{Store: storage.NewMemoryStore()}
}

func (f *DefaultFactory) createFileBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := storage.NewFileStore(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized file backend",
		log.FieldBackend, FileBackend,
		log.FieldPath, store.Dir())
	return &BackendResult{Store: store}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := storage.NewSQLiteStore(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		log.FieldBackend, SQLiteBackend,
		log.FieldPath, config.SQLiteDBPath)
	return &BackendResult{Store: store, Cleanup: store.Close}, nil
}

func (f *DefaultFactory) attachNotifier(ctx context.Context, config Config, result *BackendResult) {
	client, err := amqp.NewClient(ctx, amqp.Config{
		URL:        config.AMQPURL,
		Exchange:   config.AMQPExchange,
		RoutingKey: config.AMQPRoutingKey,
	}, f.logger)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without notifications",
			log.NewFields().WithError(err).WithErrorType(log.ErrorTypeNetwork).ToSlice()...)
		return
	}

	result.Notifier = client
	storeCleanup := result.Cleanup
	result.Cleanup = func() error {
		err := client.Close()
		if storeCleanup != nil {
			err = errors.Join(err, storeCleanup())
		}
		return err
	}
	f.logger.InfoContext(ctx, "Change notifications enabled",
		"exchange", config.AMQPExchange,
		"routing_key", config.AMQPRoutingKey)
}
