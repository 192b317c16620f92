// Package cli provides common CLI initialization utilities shared by the
// appsales subcommands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"appsales/internal/config"
	"appsales/internal/log"
	"appsales/internal/storage"
)

// SetupLogger builds the process logger from level and format strings and
// installs it as the slog default. An unknown level falls back to info.
func SetupLogger(level, format string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Format = format
	lvl, err := log.ParseLevel(level)
	if err == nil {
		cfg.Level = lvl
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", "level", level)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Overrides are command line values that take precedence over the environment.
// Zero values leave the environment value in place.
type Overrides struct {
	Year      int
	Month     int
	OutputDir string
	Sinks     string
}

// Apply writes the non-zero overrides into cfg.
func (o Overrides) Apply(cfg *config.Config) {
	cfg.SetPeriod(o.Year, o.Month)
	if o.OutputDir != "" {
		cfg.OutputDir = o.OutputDir
	}
	if o.Sinks != "" {
		cfg.Sinks = config.ParseSinks(o.Sinks)
	}
}

// LoadAndValidateConfig loads configuration, applies the overrides and
// validates the result.
func LoadAndValidateConfig(o Overrides) (*config.Config, error) {
	cfg := config.Load()
	o.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitSQLite initializes a SQLite repository with the given path.
func InitSQLite(logger *log.Logger, dbPath string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(dbPath, logger)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, log.FieldPath, dbPath)
		return nil, fmt.Errorf("open history database: %w", err)
	}
	return repo, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. The
// returned stop function releases the signal handler.
func GracefulShutdown(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
