package backend

import (
	"context"
	"errors"
	"fmt"

	"appsales/internal/amqp"
	"appsales/internal/log"
	"appsales/internal/sheets/google"
	"appsales/internal/sinks"
	"appsales/internal/sinks/file"
	"appsales/internal/sinks/memory"
	"appsales/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentOutput),
	}
}

// CreateSinks implements Factory.CreateSinks. A dry run writes to memory
// only. Sinks created before a failure are released before returning.
func (f *DefaultFactory) CreateSinks(ctx context.Context, config Config) (_ *Result, err error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	var closers []CleanupFunc
	res.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	defer func() {
		if err != nil {
			_ = res.Cleanup()
		}
	}()

	if config.DryRun {
		res.Writers = append(res.Writers, memory.New())
		f.logger.InfoContext(ctx, "Dry run, reports kept in memory")
		return res, nil
	}

	for _, st := range config.Sinks {
		var (
			w       sinks.ReportWriter
			closeFn CleanupFunc
		)
		switch st {
		case FileSink:
			w, err = f.createFileSink(config)
		case SQLiteSink:
			var repo *storage.SQLiteRepository
			repo, err = f.createSQLiteSink(config)
			if repo != nil {
				w, closeFn = repo, repo.Close
			}
		case SheetsSink:
			w, err = f.createSheetsSink(ctx, config)
		default:
			err = fmt.Errorf("unsupported sink type: %s", st)
		}
		if err != nil {
			return nil, err
		}
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
		res.Writers = append(res.Writers, w)
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without notifications", log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			res.Notifier = client
			closers = append(closers, client.Close)
		}
	}

	return res, nil
}

func (f *DefaultFactory) createFileSink(config Config) (sinks.ReportWriter, error) {
	w, err := file.New(config.OutputDir, config.SummaryFileName, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file sink: %w", err)
	}
	f.logger.Info("Initialized file sink", log.FieldPath, config.OutputDir)
	return w, nil
}

func (f *DefaultFactory) createSQLiteSink(config Config) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite sink", log.FieldPath, config.SQLiteDBPath)
	return repo, nil
}

func (f *DefaultFactory) createSheetsSink(ctx context.Context, config Config) (sinks.ReportWriter, error) {
	cli, err := google.New(ctx, google.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets sink")
	return cli, nil
}
