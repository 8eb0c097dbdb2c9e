package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"momo/internal/amqp"
	"momo/internal/services"
	"momo/internal/storage"
	"momo/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the configured store, connects the optional event
// publisher and returns the record service built on both.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.openStore(config)
	if err != nil {
		return nil, err
	}

	opts := []services.Option{
		services.WithLocation(config.Location),
		services.WithOwnerOnlyDelete(config.RestrictDeleteToOwner),
	}

	var publisher *amqp.Client
	if config.AMQPURL != "" {
		publisher, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			// Records are still stored; the mirror catches up through reconciliation.
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
			publisher = nil
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			opts = append(opts, services.WithPublisher(publisher))
		}
	}

	svc := services.NewRecordService(store, opts...)

	f.logger.InfoContext(ctx, "Initialized record backend",
		"type", config.Type.String(),
		"amqp_enabled", publisher != nil,
		"owner_only_delete", config.RestrictDeleteToOwner)

	return &Result{
		Service: svc,
		Cleanup: func() error {
			var errs []error
			if publisher != nil {
				errs = append(errs, publisher.Close())
			}
			errs = append(errs, svc.Close())
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) openStore(config Config) (storage.RecordStore, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, config.Location)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Opened SQLite store", "db_path", config.SQLiteDBPath)
		return repo, nil
	case MemoryBackend:
		f.logger.Warn("Using in-memory store; records are lost on restart")
		return memory.New(config.Location), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
