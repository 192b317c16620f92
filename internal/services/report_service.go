package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"appsales/internal/core"
	"appsales/internal/log"
	"appsales/internal/sinks"
)

// Fetcher retrieves every record created inside a range.
type Fetcher interface {
	FetchAll(ctx context.Context, r core.Range) ([]core.Record, error)
}

// ReportService runs one period end to end: retrieval, aggregation, sinks
// and the completion notification.
type ReportService struct {
	fetcher      Fetcher
	writers      []sinks.ReportWriter
	notifier     sinks.Notifier
	fetchTimeout time.Duration
	logger       *log.Logger
	now          func() time.Time
}

func NewReportService(fetcher Fetcher, writers []sinks.ReportWriter, notifier sinks.Notifier, fetchTimeout time.Duration, logger *log.Logger) *ReportService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ReportService{
		fetcher:      fetcher,
		writers:      writers,
		notifier:     notifier,
		fetchTimeout: fetchTimeout,
		logger:       logger.WithComponent(log.ComponentReport),
		now:          time.Now,
	}
}

// Run produces the report for period. Sinks are only invoked once retrieval
// and aggregation both succeeded; a failed notification is logged and does
// not fail the run.
func (s *ReportService) Run(ctx context.Context, period core.Period) (core.Report, error) {
	if err := period.Validate(); err != nil {
		return core.Report{}, err
	}
	rng := period.Range()
	start := time.Now()
	logger := s.logger.With(log.FieldRunID, log.GenerateRunID())
	ctx = log.NewContext(ctx, logger)

	logger.InfoContext(ctx, "Generating report",
		log.NewFields().
			WithOperation(log.OpFetch).
			WithPeriod(period.String(), rng.Start.Format(time.RFC3339), rng.End.Format(time.RFC3339)).
			ToSlice()...)

	records, err := s.fetch(ctx, rng)
	if err != nil {
		return core.Report{}, fmt.Errorf("fetch transactions %s: %w", period, err)
	}

	report, err := core.NewReport(period, records, s.now())
	if err != nil {
		logger.ErrorContext(ctx, "Aggregation failed",
			log.NewFields().WithOperation(log.OpSummarize).WithErrorType(log.ErrorTypeParse).WithError(err).ToSlice()...)
		return core.Report{}, fmt.Errorf("summarize %s: %w", period, err)
	}

	if err := s.write(ctx, report); err != nil {
		return core.Report{}, err
	}

	s.notify(ctx, report)

	logger.InfoContext(ctx, "Report complete",
		log.FieldPeriod, period.String(),
		log.FieldCount, report.Summary.Count,
		log.FieldTotalPaid, report.Summary.TotalPaid.String(),
		log.FieldApps, len(report.Apps),
		log.FieldDuration, time.Since(start).Milliseconds())

	return report, nil
}

func (s *ReportService) fetch(ctx context.Context, rng core.Range) ([]core.Record, error) {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}
	return s.fetcher.FetchAll(ctx, rng)
}

func (s *ReportService) write(ctx context.Context, r core.Report) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range s.writers {
		g.Go(func() error {
			if err := w.WriteReport(gctx, r); err != nil {
				log.FromContext(ctx).ErrorContext(ctx, "Sink failed",
					log.NewFields().WithOperation(log.OpWrite).WithSink(w.Name()).WithError(err).ToSlice()...)
				return fmt.Errorf("sink %s: %w", w.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *ReportService) notify(ctx context.Context, r core.Report) {
	logger := log.FromContext(ctx)
	if s.notifier == nil {
		logger.DebugContext(ctx, "No notifier configured, skipping report completed message")
		return
	}
	if err := s.notifier.NotifyReportCompleted(ctx, r); err != nil {
		logger.WarnContext(ctx, "Failed to publish report completed message",
			log.NewFields().WithOperation(log.OpNotify).WithError(err).ToSlice()...)
	}
}

// Close releases every sink and the notifier that hold resources.
func (s *ReportService) Close() error {
	var errs []error
	for _, w := range s.writers {
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", w.Name(), err))
			}
		}
	}
	if c, ok := s.notifier.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("notifier: %w", err))
		}
	}
	return errors.Join(errs...)
}
