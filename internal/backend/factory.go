package backend

import (
	"context"
	"errors"
	"fmt"

	"finwallet/internal/events"
	"finwallet/internal/events/amqp"
	"finwallet/internal/events/kafka"
	applog "finwallet/internal/log"
	"finwallet/internal/storage/flatfile"
	"finwallet/internal/storage/memory"
	"finwallet/internal/storage/sqlite"
	"finwallet/internal/store"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	persister, closePersister, err := f.createPersister(config)
	if err != nil {
		return nil, err
	}
	publisher := f.createPublisher(ctx, config)

	return &BackendResult{
		Persister: persister,
		Publisher: publisher,
		Cleanup: func() error {
			var errs []error
			if err := publisher.Close(); err != nil {
				errs = append(errs, fmt.Errorf("publisher: %w", err))
			}
			if closePersister != nil {
				if err := closePersister(); err != nil {
					errs = append(errs, fmt.Errorf("persister: %w", err))
				}
			}
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createPersister(config Config) (store.Persister, CleanupFunc, error) {
	switch config.Type {
	case FileBackend:
		f.logger.Info("Initialized file backend", "wallet_directory", config.WalletDirectory)
		return flatfile.New(config.WalletDirectory), nil, nil

	case SQLiteBackend:
		repo, err := sqlite.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, repo.Close, nil

	case MemoryBackend:
		f.logger.Warn("Initialized memory backend, wallets are lost on exit")
		return memory.New(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// createPublisher never fails: an unreachable broker degrades to no events.
func (f *DefaultFactory) createPublisher(ctx context.Context, config Config) events.Publisher {
	switch config.Events {
	case AMQPEvents:
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
			return events.Nop{}
		}
		f.logger.InfoContext(ctx, "Initialized AMQP client",
			"exchange", config.AMQPExchange,
			"queue", config.AMQPQueue)
		return client

	case KafkaEvents:
		f.logger.InfoContext(ctx, "Initialized Kafka publisher",
			"brokers", config.KafkaBrokers,
			"topic", config.KafkaTopic)
		return kafka.NewPublisher(config.KafkaBrokers, config.KafkaTopic)

	default:
		return events.Nop{}
	}
}
