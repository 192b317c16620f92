// Package sinks declares the outbound ports a finished report is written to.
package sinks

import (
	"context"

	"appsales/internal/core"
)

type (
	// ReportWriter persists a complete report. Writers are only called after
	// retrieval and aggregation succeeded.
	ReportWriter interface {
		Name() string
		WriteReport(ctx context.Context, r core.Report) error
	}

	// Notifier announces a report that every writer accepted.
	Notifier interface {
		NotifyReportCompleted(ctx context.Context, r core.Report) error
	}
)
