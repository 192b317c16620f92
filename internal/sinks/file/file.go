// Package file writes a report as pretty-printed JSON files: one summary file
// and one file per application, under <base>/<YYYY-MM>.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"appsales/internal/core"
	"appsales/internal/log"
	"appsales/internal/sinks"
)

// maxParallelWrites bounds concurrent per-app file writes.
const maxParallelWrites = 8

var _ sinks.ReportWriter = (*Writer)(nil)

type Writer struct {
	baseDir         string
	summaryFileName string
	logger          *log.Logger
}

func New(baseDir, summaryFileName string, logger *log.Logger) (*Writer, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("missing output directory")
	}
	if summaryFileName == "" || summaryFileName != filepath.Base(summaryFileName) {
		return nil, fmt.Errorf("invalid summary file name %q", summaryFileName)
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Writer{
		baseDir:         baseDir,
		summaryFileName: summaryFileName,
		logger:          logger.WithComponent(log.ComponentFile),
	}, nil
}

func (w *Writer) Name() string { return "file" }

// Dir returns the directory the report for period is written to.
func (w *Writer) Dir(period core.Period) string {
	return filepath.Join(w.baseDir, period.String())
}

// WriteReport writes all files into a staging directory and moves it into
// place once every file is written, replacing an earlier report for the same
// period. A failed write leaves no report directory behind.
func (w *Writer) WriteReport(ctx context.Context, r core.Report) error {
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	staging, err := os.MkdirTemp(w.baseDir, "."+r.Period.String()+"-*")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := writeJSON(filepath.Join(staging, w.summaryFileName), r.Summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	names := AppFileNames(r.Apps, w.summaryFileName)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelWrites)
	for i := range r.Apps {
		app := &r.Apps[i]
		name := names[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := writeJSON(filepath.Join(staging, name), app); err != nil {
				return fmt.Errorf("write app %s: %w", app.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := os.Chmod(staging, 0o755); err != nil {
		return fmt.Errorf("chmod staging directory: %w", err)
	}
	final := w.Dir(r.Period)
	if err := os.RemoveAll(final); err != nil {
		return fmt.Errorf("remove previous report: %w", err)
	}
	if err := os.Rename(staging, final); err != nil {
		return fmt.Errorf("move report into place: %w", err)
	}

	w.logger.InfoContext(ctx, "Report written", log.FieldPath, final, log.FieldApps, len(r.Apps))
	for i, app := range r.Apps {
		w.logger.InfoContext(ctx, "App report written",
			log.FieldPath, filepath.Join(final, names[i]),
			log.FieldAppID, app.ID,
			log.FieldAppName, app.AppName)
	}
	return nil
}

// AppFileNames returns one file name per app, in order. Names derive from the
// app display name; clashes (case-insensitive, including the summary file)
// get a numeric suffix.
func AppFileNames(apps []core.AppSummary, summaryFileName string) []string {
	used := map[string]bool{strings.ToLower(summaryFileName): true}
	out := make([]string, 0, len(apps))
	for _, app := range apps {
		base := SanitizeFileName(app.AppName)
		if base == "" {
			base = SanitizeFileName(app.ID)
		}
		if base == "" {
			base = "app"
		}
		name := base + ".json"
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s-%d.json", base, n)
		}
		used[strings.ToLower(name)] = true
		out = append(out, name)
	}
	return out
}

// SanitizeFileName replaces characters that are not portable in file names.
func SanitizeFileName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20 || r == 0x7f:
			return -1
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		default:
			return r
		}
	}, s)
	return strings.Trim(s, " .")
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
