package backend

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/storage"
)

const amqpDialAttempts = 3

// Factory creates backends from the application config.
type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create opens the configured store. With withAlerts set it also connects
// to AMQP; with withExport it builds the Sheets client. A broker that cannot
// be reached disables alerts instead of failing.
func (f *Factory) Create(ctx context.Context, cfg *config.Config, withAlerts, withExport bool) (*Result, error) {
	store, closeStore, err := f.NewStore(cfg)
	if err != nil {
		return nil, err
	}
	res := &Result{Store: store}
	closers := []CleanupFunc{closeStore}

	if withAlerts && cfg.AlertsEnabled() {
		client, err := amqp.NewClient(log.NewContext(ctx, f.logger), cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqpDialAttempts)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without alerts", log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			res.Publisher = client
			closers = append(closers, client.Close)
		}
	}

	if withExport && cfg.ExportEnabled() {
		client, err := gsheet.New(log.NewContext(ctx, f.logger), gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		})
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		res.Exporter = client
	}

	res.Cleanup = func() error { return closeAll(closers) }
	return res, nil
}

// NewStore opens the record store selected by cfg.DataBackend.
func (f *Factory) NewStore(cfg *config.Config) (storage.Store, CleanupFunc, error) {
	bt := BackendType(cfg.DataBackend)
	if !bt.IsValid() {
		return nil, nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}
	noop := func() error { return nil }

	switch bt {
	case SQLiteBackend:
		store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return store, store.Close, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return storage.NewMemoryStore(), noop, nil
	default:
		store, err := storage.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		f.logger.Info("Initialized file backend", "data_dir", store.Root())
		return store, noop, nil
	}
}

// closeAll closes in reverse order and joins the errors.
func closeAll(closers []CleanupFunc) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
