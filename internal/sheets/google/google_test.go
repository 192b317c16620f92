package google

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"appsales/internal/core"
	"appsales/internal/log"
)

type fakeSheets struct {
	t      *testing.T
	titles []string

	mu      sync.Mutex
	added   []string
	cleared []string
	updates []gsheet.ValueRange
	options []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/sheet-id"):
		sheets := make([]map[string]any, 0, len(f.titles))
		for _, title := range f.titles {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": title}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		for _, rq := range req.Requests {
			f.added = append(f.added, rq.AddSheet.Properties.Title)
		}
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.cleared = append(f.cleared, path)
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var vr gsheet.ValueRange
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&vr))
		f.updates = append(f.updates, vr)
		f.options = append(f.options, r.URL.Query().Get("valueInputOption"))
		_, _ = w.Write([]byte(`{}`))
	default:
		f.t.Errorf("unexpected request %s %s", r.Method, path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	logger := log.New(log.Config{Level: slog.LevelError, Output: io.Discard})
	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-id"}, logger,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func testReport(t *testing.T) core.Report {
	t.Helper()
	rec := func(id, appID, name, amount string) core.Record {
		return core.Record{Cursor: id, Node: core.Transaction{
			ID: id, NetAmount: core.NetAmount{Amount: amount}, App: core.App{ID: appID, Name: name},
		}}
	}
	r, err := core.NewReport(core.Period{Year: 2022, Month: 11}, []core.Record{
		rec("A1", "app-1", "App1", "10.50"),
		rec("A2", "app-2", "App2", "5.00"),
		rec("A3", "app-1", "App1", "2.25"),
	}, time.Now())
	require.NoError(t, err)
	return r
}

func TestSummaryRows(t *testing.T) {
	rows := SummaryRows(testReport(t))
	assert.Equal(t, [][]any{
		Header,
		{"app-1", "App1", 2, "12.75"},
		{"app-2", "App2", 1, "5"},
		{"TOTAL", "", 3, "17.75"},
	}, rows)
}

func TestWriteReport_CreatesMissingSheet(t *testing.T) {
	api := &fakeSheets{t: t, titles: []string{"2022-10"}}
	c := newTestClient(t, api)

	require.NoError(t, c.WriteReport(context.Background(), testReport(t)))

	assert.Equal(t, []string{"2022-11"}, api.added)
	require.Len(t, api.cleared, 1)
	assert.Contains(t, api.cleared[0], "2022-11")
	require.Len(t, api.updates, 1)
	assert.Equal(t, "USER_ENTERED", api.options[0])

	values := api.updates[0].Values
	require.Len(t, values, 4)
	assert.Equal(t, "App ID", values[0][0])
	assert.Equal(t, "app-1", values[1][0])
	assert.Equal(t, "TOTAL", values[3][0])
	assert.Equal(t, "17.75", values[3][3])
}

func TestWriteReport_ReusesExistingSheet(t *testing.T) {
	api := &fakeSheets{t: t, titles: []string{"2022-11"}}
	c := newTestClient(t, api)

	require.NoError(t, c.WriteReport(context.Background(), testReport(t)))
	assert.Empty(t, api.added)
	assert.Len(t, api.updates, 1)
}

func TestWriteReport_APIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied"}}`))
	}))

	err := c.WriteReport(context.Background(), testReport(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get spreadsheet")
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	assert.Error(t, err)

	_, err = New(context.Background(), Config{SpreadsheetID: "x"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")

	_, err = New(context.Background(), Config{SpreadsheetID: "x", ServiceAccountFile: "/does/not/exist.json"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}
