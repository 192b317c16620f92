package file

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appsales/internal/core"
	"appsales/internal/log"
)

func quietLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError, Output: io.Discard})
}

func record(id, appID, appName, amount string) core.Record {
	return core.Record{
		Cursor: "c-" + id,
		Node: core.Transaction{
			ID:        id,
			CreatedAt: time.Date(2022, 11, 3, 0, 0, 0, 0, time.UTC),
			NetAmount: core.NetAmount{Amount: amount},
			App:       core.App{ID: appID, Name: appName},
			Shop:      core.Shop{Name: "Shop " + id, MyshopifyDomain: id + ".myshopify.com"},
		},
	}
}

func testReport(t *testing.T, records ...core.Record) core.Report {
	t.Helper()
	r, err := core.NewReport(core.Period{Year: 2022, Month: 11}, records, time.Now())
	require.NoError(t, err)
	return r
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestWriteReport_WritesSummaryAndAppFiles(t *testing.T) {
	base := t.TempDir()
	w, err := New(base, "total.json", quietLogger())
	require.NoError(t, err)

	r := testReport(t,
		record("A1", "app-1", "App1", "10.50"),
		record("A2", "app-2", "App/Two", "5.00"),
		record("A3", "app-1", "App1", "2.25"),
	)
	require.NoError(t, w.WriteReport(context.Background(), r))

	dir := filepath.Join(base, "2022-11")
	assert.Equal(t, dir, w.Dir(r.Period))

	total := readJSON(t, filepath.Join(dir, "total.json"))
	assert.EqualValues(t, 3, total["count"])
	assert.EqualValues(t, 17.75, total["total_paid"])
	data := total["data"].([]any)
	require.Len(t, data, 3)
	first := data[0].(map[string]any)
	assert.Equal(t, "c-A1", first["cursor"])
	node := first["node"].(map[string]any)
	assert.Equal(t, "A1", node["id"])
	assert.Equal(t, "2022-11-03T00:00:00Z", node["created_at"])
	assert.Equal(t, map[string]any{"amount": "10.50"}, node["net_amount"])
	assert.Equal(t, map[string]any{"name": "Shop A1", "myshopify_domain": "A1.myshopify.com"}, node["shop"])

	app1 := readJSON(t, filepath.Join(dir, "App1.json"))
	assert.Equal(t, "app-1", app1["id"])
	assert.Equal(t, "App1", app1["app_name"])
	assert.EqualValues(t, 2, app1["count"])
	assert.EqualValues(t, 12.75, app1["total_paid"])
	assert.Len(t, app1["data"], 2)

	app2 := readJSON(t, filepath.Join(dir, "App_Two.json"))
	assert.EqualValues(t, 1, app2["count"])

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	require.Len(t, entries, 1, "staging directory must not be left behind")
	assert.Equal(t, "2022-11", entries[0].Name())
}

func TestWriteReport_EmptyReport(t *testing.T) {
	base := t.TempDir()
	w, err := New(base, "total.json", quietLogger())
	require.NoError(t, err)

	require.NoError(t, w.WriteReport(context.Background(), testReport(t)))

	total := readJSON(t, filepath.Join(base, "2022-11", "total.json"))
	assert.EqualValues(t, 0, total["count"])
	assert.EqualValues(t, 0, total["total_paid"])
	assert.Equal(t, []any{}, total["data"])

	entries, err := os.ReadDir(filepath.Join(base, "2022-11"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteReport_ReplacesPreviousRun(t *testing.T) {
	base := t.TempDir()
	w, err := New(base, "total.json", quietLogger())
	require.NoError(t, err)

	require.NoError(t, w.WriteReport(context.Background(), testReport(t, record("A1", "app-1", "Old", "1"))))
	require.NoError(t, w.WriteReport(context.Background(), testReport(t, record("A1", "app-1", "New", "1"))))

	dir := filepath.Join(base, "2022-11")
	assert.NoFileExists(t, filepath.Join(dir, "Old.json"))
	assert.FileExists(t, filepath.Join(dir, "New.json"))
}

func TestWriteReport_CancelledContextLeavesNothing(t *testing.T) {
	base := t.TempDir()
	w, err := New(base, "total.json", quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = w.WriteReport(ctx, testReport(t, record("A1", "app-1", "App1", "1")))
	require.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppFileNames(t *testing.T) {
	apps := []core.AppSummary{
		{ID: "1", AppName: "Twin"},
		{ID: "2", AppName: "twin"},
		{ID: "3", AppName: "Total"},
		{ID: "4", AppName: ""},
		{ID: "5", AppName: " ../etc "},
	}
	got := AppFileNames(apps, "total.json")
	assert.Equal(t, []string{"Twin.json", "twin-2.json", "Total-2.json", "4.json", "_etc.json"}, got)
}

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"Plain App":  "Plain App",
		"a/b\\c":     "a_b_c",
		"what?*":     "what__",
		"  spaced. ": "spaced",
		"tab\tname":  "tabname",
		"日本語のアプリ":    "日本語のアプリ",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFileName(in), in)
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New("", "total.json", nil)
	assert.Error(t, err)
	_, err = New(t.TempDir(), "sub/total.json", nil)
	assert.Error(t, err)
	_, err = New(t.TempDir(), "", nil)
	assert.Error(t, err)
}
