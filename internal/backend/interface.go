package backend

import (
	"context"

	"appsales/internal/sinks"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result holds the report writers built from configuration, the optional
// notifier and a cleanup releasing both.
type Result struct {
	Writers  []sinks.ReportWriter
	Notifier sinks.Notifier
	Cleanup  CleanupFunc
}

// Factory creates report sinks based on configuration
type Factory interface {
	CreateSinks(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for sink creation
type Config struct {
	Sinks  []SinkType
	DryRun bool

	// File
	OutputDir       string
	SummaryFileName string

	// SQLite
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// AMQP notifier, enabled when AMQPURL is set
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// SinkType names one output destination
type SinkType string

const (
	FileSink   SinkType = "file"
	SQLiteSink SinkType = "sqlite"
	SheetsSink SinkType = "sheets"
)

// String implements fmt.Stringer
func (st SinkType) String() string {
	return string(st)
}

// IsValid returns true if the sink type is known
func (st SinkType) IsValid() bool {
	switch st {
	case FileSink, SQLiteSink, SheetsSink:
		return true
	default:
		return false
	}
}
