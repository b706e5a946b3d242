// Package backend selects and wires the persistence backend for the
// application store based on configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"rozliczenia/internal/amqp"
	"rozliczenia/internal/config"
	"rozliczenia/internal/storage"
	"rozliczenia/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the wired store and optional cleanup function
type Result struct {
	Store   *store.Store
	Cleanup CleanupFunc
}

// Type represents the kind of blob persistence behind the store
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Factory creates the store and its persistence from configuration
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create builds the blob store named by cfg.DataBackend, attaches the
// optional AMQP notifier, loads the persisted snapshot and seeds demo data
// on first run.
func (f *Factory) Create(ctx context.Context, cfg *config.Config) (*Result, error) {
	backendType := Type(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	var blobs storage.BlobStore
	switch backendType {
	case SQLiteBackend:
		sqliteStore, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		blobs = sqliteStore
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case MemoryBackend:
		blobs = storage.NewMemoryStore()
		f.logger.Info("Initialized memory backend")
	}

	// AMQP notifier is optional: a broker that is down at startup only
	// disables change events.
	var notifier store.Notifier
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		} else {
			amqpClient = client
			notifier = client
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	st := store.New(blobs, notifier, f.logger)
	if err := st.Open(ctx); err != nil {
		blobs.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := st.SeedDemo(ctx); err != nil {
		blobs.Close()
		return nil, fmt.Errorf("seed store: %w", err)
	}

	cleanup := func() error {
		if amqpClient != nil {
			amqpClient.Close()
		}
		return blobs.Close()
	}

	return &Result{Store: st, Cleanup: cleanup}, nil
}
