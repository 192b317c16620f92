package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"appsales/internal/core"
	"appsales/internal/log"
	"appsales/internal/sinks"

	_ "modernc.org/sqlite"
)

var ErrRunNotFound = errors.New("report run not found")

var _ sinks.ReportWriter = (*SQLiteRepository)(nil)

// SQLiteRepository keeps a history of report runs, one per period.
type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

// Run is a stored report header.
type Run struct {
	Period      core.Period
	Range       core.Range
	Count       int
	TotalPaid   core.Money
	Apps        int
	GeneratedAt time.Time
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Name() string { return "sqlite" }

// WriteReport implements sinks.ReportWriter. A run for the same period is
// replaced inside one transaction.
func (r *SQLiteRepository) WriteReport(ctx context.Context, rep core.Report) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	period := rep.Period.String()
	for _, q := range []string{
		`DELETE FROM transactions WHERE run_id IN (SELECT id FROM report_runs WHERE period = ?)`,
		`DELETE FROM app_summaries WHERE run_id IN (SELECT id FROM report_runs WHERE period = ?)`,
		`DELETE FROM report_runs WHERE period = ?`,
	} {
		if _, err = tx.ExecContext(ctx, q, period); err != nil {
			return fmt.Errorf("remove previous run %s: %w", period, err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO report_runs (period, year, month, range_start, range_end, tx_count, total_paid, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		period, rep.Period.Year, rep.Period.Month,
		rep.Range.Start.UTC().Format(time.RFC3339), rep.Range.End.UTC().Format(time.RFC3339),
		rep.Summary.Count, rep.Summary.TotalPaid.String(), rep.GeneratedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert run %s: %w", period, err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	appStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO app_summaries (run_id, position, app_id, app_name, tx_count, total_paid) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare app insert: %w", err)
	}
	defer appStmt.Close()

	for i, app := range rep.Apps {
		if _, err = appStmt.ExecContext(ctx, runID, i, app.ID, app.AppName, app.Count, app.TotalPaid.String()); err != nil {
			return fmt.Errorf("insert app %s: %w", app.ID, err)
		}
	}

	txStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (run_id, position, id, cursor, created_at, amount, app_id, app_name, shop_name, shop_domain)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare transaction insert: %w", err)
	}
	defer txStmt.Close()

	for i, rec := range rep.Summary.Data {
		n := rec.Node
		if _, err = txStmt.ExecContext(ctx, runID, i, n.ID, rec.Cursor, n.CreatedAt.UTC().Format(time.RFC3339),
			n.NetAmount.Amount, n.App.ID, n.App.Name, n.Shop.Name, n.Shop.MyshopifyDomain); err != nil {
			return fmt.Errorf("insert transaction %s: %w", n.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", period, err)
	}

	r.logger.InfoContext(ctx, "Report saved to SQLite",
		log.FieldPeriod, period,
		log.FieldCount, rep.Summary.Count,
		log.FieldTotalPaid, rep.Summary.TotalPaid.String(),
		log.FieldApps, len(rep.Apps))

	return nil
}

// ListRuns returns stored runs, most recent period first.
func (r *SQLiteRepository) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rr.year, rr.month, rr.range_start, rr.range_end, rr.tx_count, rr.total_paid, rr.generated_at,
		        (SELECT COUNT(*) FROM app_summaries a WHERE a.run_id = rr.id)
		   FROM report_runs rr
		  ORDER BY rr.year DESC, rr.month DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run                          Run
			start, end, total, generated string
		)
		if err := rows.Scan(&run.Period.Year, &run.Period.Month, &start, &end, &run.Count, &total, &generated, &run.Apps); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.Range.Start, err = time.Parse(time.RFC3339, start); err != nil {
			return nil, fmt.Errorf("parse range start: %w", err)
		}
		if run.Range.End, err = time.Parse(time.RFC3339, end); err != nil {
			return nil, fmt.Errorf("parse range end: %w", err)
		}
		if run.GeneratedAt, err = time.Parse(time.RFC3339Nano, generated); err != nil {
			return nil, fmt.Errorf("parse generated_at: %w", err)
		}
		if run.TotalPaid, err = parseMoney(total); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// ListAppSummaries returns the per-app totals stored for period, in their
// original bucket order. Records are not loaded.
func (r *SQLiteRepository) ListAppSummaries(ctx context.Context, period core.Period) ([]core.AppSummary, error) {
	var runID int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM report_runs WHERE period = ?`, period.String()).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, period)
	}
	if err != nil {
		return nil, fmt.Errorf("find run %s: %w", period, err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT app_id, app_name, tx_count, total_paid FROM app_summaries WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("list app summaries: %w", err)
	}
	defer rows.Close()

	out := make([]core.AppSummary, 0)
	for rows.Next() {
		var (
			app   core.AppSummary
			total string
		)
		if err := rows.Scan(&app.ID, &app.AppName, &app.Count, &total); err != nil {
			return nil, fmt.Errorf("scan app summary: %w", err)
		}
		if app.TotalPaid, err = parseMoney(total); err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

// CountTransactions returns the number of stored records for period.
func (r *SQLiteRepository) CountTransactions(ctx context.Context, period core.Period) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions t JOIN report_runs rr ON rr.id = t.run_id WHERE rr.period = ?`,
		period.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions %s: %w", period, err)
	}
	return n, nil
}

func parseMoney(s string) (core.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("parse stored amount %q: %w", s, err)
	}
	return core.NewMoney(d), nil
}
