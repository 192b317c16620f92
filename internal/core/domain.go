package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type (
	// App identifies the application that originated a sale.
	App struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	Shop struct {
		Name            string `json:"name"`
		MyshopifyDomain string `json:"myshopify_domain"`
	}

	NetAmount struct {
		Amount string `json:"amount"`
	}

	// Transaction is one sale as returned by the partner API. Amount stays
	// textual until aggregation parses it.
	Transaction struct {
		ID        string    `json:"id"`
		CreatedAt time.Time `json:"created_at"`
		NetAmount NetAmount `json:"net_amount"`
		App       App       `json:"app"`
		Shop      Shop      `json:"shop"`
	}

	// Record is a transaction together with the continuation token that
	// addresses its position in the paged result set.
	Record struct {
		Cursor string      `json:"cursor"`
		Node   Transaction `json:"node"`
	}

	Period struct {
		Year  int
		Month int // 1-12
	}

	// Range is a half-open interval: Start <= createdAt < End.
	Range struct {
		Start time.Time
		End   time.Time
	}
)

var (
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidYear   = errors.New("invalid year")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidRange  = errors.New("invalid range")
	ErrInvalidPeriod = errors.New("invalid period")
)

func NewPeriod(year, month int) (Period, error) {
	p := Period{Year: year, Month: month}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// ParsePeriod parses a YYYY-MM period.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return NewPeriod(t.Year(), int(t.Month()))
}

// PreviousPeriod returns the calendar month before the one containing now.
func PreviousPeriod(now time.Time) Period {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return Period{Year: first.Year(), Month: int(first.Month())}
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, p.Month)
	}
	if p.Year < 2000 || p.Year > 9999 {
		return fmt.Errorf("%w: %d", ErrInvalidYear, p.Year)
	}
	return nil
}

// Range returns [first-of-month, first-of-next-month) in UTC. December rolls
// over into January of the following year.
func (p Period) Range() Range {
	start := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	return Range{Start: start, End: start.AddDate(0, 1, 0)}
}

// String formats the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: zero bound", ErrInvalidRange)
	}
	if !r.Start.Before(r.End) {
		return fmt.Errorf("%w: start %s not before end %s", ErrInvalidRange, r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	}
	return nil
}
