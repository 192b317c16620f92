package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"appsales/internal/core"
	"appsales/internal/log"
	"appsales/internal/sinks"
)

var _ sinks.ReportWriter = (*Client)(nil)

// Header is the first row of every period tab.
var Header = []any{"App ID", "App name", "Transactions", "Total paid"}

type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Client writes one tab per period, named YYYY-MM, into a spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

// New creates a Sheets client authenticated with a service account. Extra
// options replace the credential lookup, which lets callers point the client
// at another endpoint.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, cfg, logger, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID, logger: logger}, nil
}

func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger, opts []goption.ClientOption) (*gsheet.Service, error) {
	if len(opts) > 0 {
		return gsheet.NewService(ctx, opts...)
	}

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		logger.DebugContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(cfg.ServiceAccountJSON)
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		logger.DebugContext(ctx, "Reading credentials from file", log.FieldPath, cfg.ServiceAccountFile)
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) Name() string { return "sheets" }

// WriteReport implements sinks.ReportWriter. The period tab is created when
// missing and its previous content is cleared before writing.
func (c *Client) WriteReport(ctx context.Context, r core.Report) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	tab := r.Period.String()

	exists, err := c.hasSheet(ctx, tab)
	if err != nil {
		return err
	}
	if !exists {
		req := &gsheet.BatchUpdateSpreadsheetRequest{
			Requests: []*gsheet.Request{{
				AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
			}},
		}
		if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("add sheet %s: %w", tab, err)
		}
		c.logger.InfoContext(ctx, "Created period sheet", log.FieldPeriod, tab)
	}

	all := fmt.Sprintf("'%s'!A:D", tab)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, all, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", tab, err)
	}

	rows := SummaryRows(r)
	rng := fmt.Sprintf("'%s'!A1:D%d", tab, len(rows))
	vr := &gsheet.ValueRange{Values: rows}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", tab, err)
	}

	c.logger.InfoContext(ctx, "Report written to Google Sheets",
		log.FieldPeriod, tab,
		log.FieldApps, len(r.Apps),
		log.FieldTotalPaid, r.Summary.TotalPaid.String())
	return nil
}

func (c *Client) hasSheet(ctx context.Context, title string) (bool, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return true, nil
		}
	}
	return false, nil
}

// SummaryRows renders the header, one row per app in bucket order and a
// closing TOTAL row.
func SummaryRows(r core.Report) [][]any {
	rows := make([][]any, 0, len(r.Apps)+2)
	rows = append(rows, Header)
	for _, app := range r.Apps {
		rows = append(rows, []any{app.ID, app.AppName, app.Count, app.TotalPaid.String()})
	}
	rows = append(rows, []any{"TOTAL", "", r.Summary.Count, r.Summary.TotalPaid.String()})
	return rows
}
