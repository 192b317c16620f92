package core

import "time"

// Report is the outcome of one run: the period it covers and its totals.
type Report struct {
	Period      Period
	Range       Range
	Summary     Summary
	Apps        []AppSummary
	GeneratedAt time.Time
}

// NewReport summarizes records fetched for period.
func NewReport(period Period, records []Record, now time.Time) (Report, error) {
	summary, apps, err := Summarize(records)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Period:      period,
		Range:       period.Range(),
		Summary:     summary,
		Apps:        apps,
		GeneratedAt: now.UTC(),
	}, nil
}
