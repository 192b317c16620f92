// Package memory keeps reports in process. It backs dry runs and tests.
package memory

import (
	"context"
	"sync"

	"appsales/internal/core"
	"appsales/internal/sinks"
)

var (
	_ sinks.ReportWriter = (*Store)(nil)
	_ sinks.Notifier     = (*Store)(nil)
)

type Store struct {
	mu       sync.Mutex
	name     string
	err      error
	reports  []core.Report
	notified []core.Report
}

func New() *Store {
	return &Store{name: "memory"}
}

// NewFailing returns a store whose writes and notifications fail with err.
func NewFailing(name string, err error) *Store {
	return &Store{name: name, err: err}
}

func (s *Store) Name() string { return s.name }

// WriteReport stores the report.
func (s *Store) WriteReport(ctx context.Context, r core.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.reports = append(s.reports, r)
	return nil
}

func (s *Store) NotifyReportCompleted(_ context.Context, r core.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.notified = append(s.notified, r)
	return nil
}

// Reports returns a copy of the stored reports in write order.
func (s *Store) Reports() []core.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Report(nil), s.reports...)
}

func (s *Store) Notifications() []core.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Report(nil), s.notified...)
}

// Latest returns the last report written for period.
func (s *Store) Latest(period core.Period) (core.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.reports) - 1; i >= 0; i-- {
		if s.reports[i].Period == period {
			return s.reports[i], true
		}
	}
	return core.Report{}, false
}
