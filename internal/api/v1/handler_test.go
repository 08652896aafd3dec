package v1

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"davisboard/internal/logging"
	"davisboard/internal/model"
	"davisboard/internal/service/session"
	"davisboard/internal/spreads"
	"davisboard/internal/store"
	"davisboard/internal/table"
)

func newTestRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.New(filepath.Join(t.TempDir(), "davisboard.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	sessions, err := session.NewStore("")
	if err != nil {
		t.Fatalf("init sessions: %v", err)
	}

	h := NewHandler(st, sessions, Options{
		QuarterYear: 2025,
		MyMills:     []string{"Mill A"},
		ExportDir:   t.TempDir(),
	})
	r := gin.New()
	api := r.Group("/api")
	h.RegisterRoutes(api)
	return r, st
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// sseEvents 解析 `data: {json}` 事件流
func sseEvents(t *testing.T, body string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, chunk := range strings.Split(body, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		var ev map[string]any
		if err := json.Unmarshal([]byte(strings.TrimPrefix(chunk, "data: ")), &ev); err != nil {
			t.Fatalf("decode event %q: %v", chunk, err)
		}
		out = append(out, ev)
	}
	return out
}

func tableRows() []map[string]any {
	return []map[string]any{
		{"level1": "North Central", "sep2024": 1234.5, "sep2024_change": 0.21, "aug2024": 1200, "yoy": -1.5},
		{"level1": "North Central", "level2": "Sub1", "sep2024": 10},
		{"level1": "North Central", "level2": "Sub1", "level3": "Mill A", "sep2024": 3},
		{"level1": "North Central", "level2": "Sub1", "level3": "Mill B", "sep2024": 4},
		{"level1": "South", "sep2024": 20},
	}
}

func spreadRows() []map[string]any {
	return []map[string]any{
		{"region_a": "NC", "region_b": "S", "spread": 12.345},
		{"region_a": "S", "region_b": "NC", "spread": -5},
	}
}

func createDataset(t *testing.T, r http.Handler, name string, widget model.WidgetType, rows []map[string]any) model.Dataset {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/datasets", map[string]any{
		"name":   name,
		"widget": widget,
		"rows":   rows,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create dataset: %d body=%s", w.Code, w.Body.String())
	}
	var ds model.Dataset
	if err := json.Unmarshal(w.Body.Bytes(), &ds); err != nil {
		t.Fatalf("decode dataset: %v", err)
	}
	return ds
}

func viewNames(v table.View) []string {
	out := make([]string, 0, len(v.Rows))
	for _, r := range v.Rows {
		out = append(out, r.Name)
	}
	return out
}

func TestDatasetLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)
	ds := createDataset(t, r, "Index trends", model.WidgetMonthOverMonth, tableRows())
	if ds.ID == "" || ds.RowCount != 5 || ds.Version != 1 {
		t.Fatalf("unexpected dataset: %+v", ds)
	}

	w := doJSON(t, r, http.MethodGet, "/api/datasets", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), ds.ID) {
		t.Fatalf("list datasets: %d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/datasets/"+ds.ID+"/months", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("months: %d body=%s", w.Code, w.Body.String())
	}
	var months MonthsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &months); err != nil {
		t.Fatalf("decode months: %v", err)
	}
	if len(months.Columns) != 2 || months.Columns[0].FullKey != "sep2024" {
		t.Fatalf("unexpected columns: %+v", months.Columns)
	}
	if len(months.Options) != 3 || months.Options[0] != table.AllMonthsOption {
		t.Fatalf("unexpected options: %v", months.Options)
	}

	w = doJSON(t, r, http.MethodGet, "/api/datasets/"+ds.ID+"/table", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("table: %d body=%s", w.Code, w.Body.String())
	}
	var view table.View
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if got := viewNames(view); strings.Join(got, ",") != "North Central,Sub1,South" {
		t.Fatalf("unexpected rows: %v", got)
	}

	w = doJSON(t, r, http.MethodDelete, "/api/datasets/"+ds.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: %d body=%s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodGet, "/api/datasets/"+ds.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestApplyEvents(t *testing.T) {
	r, _ := newTestRouter(t)
	ds := createDataset(t, r, "Index trends", model.WidgetMonthOverMonth, tableRows())
	path := "/api/datasets/" + ds.ID + "/table/events"

	w := doJSON(t, r, http.MethodPost, path, map[string]any{
		"events": []map[string]any{
			{"type": "toggle_expand", "key": "North Central__Sub1"},
			{"type": "show_volume", "on": true},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("events: %d body=%s", w.Code, w.Body.String())
	}
	var view table.View
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if got := viewNames(view); strings.Join(got, ",") != "North Central,Sub1,Mill A,Mill B,South" {
		t.Fatalf("unexpected rows: %v", got)
	}
	if !view.State.ShowVolume {
		t.Fatalf("show volume not applied")
	}

	// 状态在请求之间保留
	w = doJSON(t, r, http.MethodGet, "/api/datasets/"+ds.ID+"/table", nil)
	if !strings.Contains(w.Body.String(), `"showVolume":true`) {
		t.Fatalf("state not kept: %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, path, map[string]any{
		"events": []map[string]any{{"type": "show_my_mills", "on": true}},
	})
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if got := viewNames(view); strings.Join(got, ",") != "North Central,Sub1,Mill A,South" {
		t.Fatalf("my mills filter: %v", got)
	}
}

func TestApplyEvents_RejectsInvalidInput(t *testing.T) {
	r, _ := newTestRouter(t)
	ds := createDataset(t, r, "Index trends", model.WidgetMonthOverMonth, tableRows())
	path := "/api/datasets/" + ds.ID + "/table/events"

	w := doJSON(t, r, http.MethodPost, path, map[string]any{
		"events":  []map[string]any{},
		"filters": []map[string]any{{"filterId": "f1", "valueType": "string", "operation": "~="}},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad filter, got %d", w.Code)
	}

	logs := logging.NewBufferedHandler(nil)
	logging.SetLogger(slog.New(logs))
	t.Cleanup(func() { logging.SetLogger(nil) })

	w = doJSON(t, r, http.MethodPost, path, map[string]any{
		"events":  []map[string]any{{"type": "show_volume", "on": true}},
		"filters": []map[string]any{{"filterId": "f1", "valueType": "number", "operation": ">", "values": []any{5}}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("valid filter should pass: %d body=%s", w.Code, w.Body.String())
	}
	if !logs.Contains("filters received") {
		t.Fatalf("filters not logged: %s", logs.String())
	}

	w = doJSON(t, r, http.MethodPost, path, map[string]any{
		"events": []map[string]any{{"type": "choose_additional", "option": "Q5"}},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad event, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/datasets/missing/table/events", map[string]any{"events": []any{}})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSpreadsEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)
	ds := createDataset(t, r, "Spreads", model.WidgetMarketSpreads, spreadRows())

	w := doJSON(t, r, http.MethodGet, "/api/datasets/"+ds.ID+"/table", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("table on spreads dataset should be 400, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/datasets/"+ds.ID+"/spreads", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("spreads: %d body=%s", w.Code, w.Body.String())
	}
	var m spreads.Matrix
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode matrix: %v", err)
	}
	if len(m.Regions) != 2 || m.Regions[0].Code != "NC" {
		t.Fatalf("unexpected regions: %+v", m.Regions)
	}
	if got := m.Cells[0][1]; got.SpreadText != "12.35" || got.ChangeText != "+14" {
		t.Fatalf("unexpected cell: %+v", got)
	}

	w = doJSON(t, r, http.MethodGet, "/api/datasets/"+ds.ID+"/spreads/heatmap.png", nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("heatmap: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("heatmap is not a png")
	}
}

func TestConfigSettings(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPatch, "/api/config", map[string]any{
		"widget": "market_spreads",
		"title":  "Regional spreads",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch: %d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/config", nil)
	var cfg ConfigResponse
	if err := json.Unmarshal(w.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	got := cfg.Settings[model.WidgetMarketSpreads]
	if got.Title != "Regional spreads" || got.Subtitle != model.DefaultSettings(model.WidgetMarketSpreads).Subtitle {
		t.Fatalf("unexpected settings: %+v", got)
	}
	if cfg.QuarterYear != 2025 || len(cfg.MyMills) != 1 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	w = doJSON(t, r, http.MethodPatch, "/api/config", map[string]any{"widget": "pie", "title": "x"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown widget, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPatch, "/api/config", map[string]any{"currentDataset": "missing"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown dataset, got %d", w.Code)
	}
}

// postImport 以 multipart 上传 JSON 行数据
func postImport(t *testing.T, r http.Handler, filename string, rows []map[string]any, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if err := json.NewEncoder(fw).Encode(rows); err != nil {
		t.Fatalf("encode: %v", err)
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/datasets/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestImportStream(t *testing.T) {
	r, st := newTestRouter(t)

	w := postImport(t, r, "spreads.json", spreadRows(), map[string]string{"name": "Feb spreads"})

	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "text/event-stream" {
		t.Fatalf("import: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	events := sseEvents(t, w.Body.String())
	if len(events) == 0 || events[len(events)-1]["type"] != "done" {
		t.Fatalf("unexpected events: %v", events)
	}

	datasets, err := st.ListDatasets()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(datasets) != 1 || datasets[0].Name != "Feb spreads" || datasets[0].Widget != model.WidgetMarketSpreads {
		t.Fatalf("unexpected datasets: %+v", datasets)
	}
	current, _ := st.GetCurrentDataset()
	if current != datasets[0].ID {
		t.Fatalf("current dataset not set: %q", current)
	}

	w = doJSON(t, r, http.MethodGet, "/api/status", nil)
	var status StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Initialized || status.DatasetCount != 1 || status.LastImportTime == "" {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestReplaceDatasetResetsTableState(t *testing.T) {
	r, _ := newTestRouter(t)
	ds := createDataset(t, r, "Index trends", model.WidgetMonthOverMonth, tableRows())

	w := doJSON(t, r, http.MethodPost, "/api/datasets/"+ds.ID+"/table/events", map[string]any{
		"events": []map[string]any{{"type": "show_volume", "on": true}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("events: %d body=%s", w.Code, w.Body.String())
	}

	replacement := []map[string]any{
		{"level1": "North Central", "mar2025": 10, "feb2025": 9},
		{"level1": "South", "mar2025": 20, "feb2025": 18},
	}
	w = postImport(t, r, "march.json", replacement, map[string]string{"datasetId": ds.ID})
	events := sseEvents(t, w.Body.String())
	if len(events) == 0 || events[len(events)-1]["type"] != "done" {
		t.Fatalf("replace import: %v", events)
	}

	w = doJSON(t, r, http.MethodGet, "/api/datasets/"+ds.ID+"/table", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("table: %d body=%s", w.Code, w.Body.String())
	}
	var view table.View
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.State.ShowVolume {
		t.Fatalf("show volume should reset after replace")
	}
	if got := view.State.Months; len(got) != 2 || got[0] != model.Mar || got[1] != model.Feb {
		t.Fatalf("months should follow new data: %v", got)
	}
	for _, col := range view.Columns {
		if col.Placeholder {
			t.Fatalf("stale month column after replace: %+v", col)
		}
	}
	if got := viewNames(view); strings.Join(got, ",") != "North Central,South" {
		t.Fatalf("unexpected rows: %v", got)
	}
}

func TestExportStreamAndDownload(t *testing.T) {
	r, _ := newTestRouter(t)
	ds := createDataset(t, r, "Index trends", model.WidgetMonthOverMonth, tableRows())

	w := doJSON(t, r, http.MethodPost, "/api/datasets/"+ds.ID+"/export/stream", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export stream: %d body=%s", w.Code, w.Body.String())
	}
	events := sseEvents(t, w.Body.String())
	last := events[len(events)-1]
	if last["type"] != "done" {
		t.Fatalf("unexpected last event: %v", last)
	}
	data, _ := last["data"].(map[string]any)
	url, _ := data["downloadUrl"].(string)
	if !strings.HasPrefix(url, "/api/export/download/") {
		t.Fatalf("unexpected download url: %q", url)
	}

	w = doJSON(t, r, http.MethodGet, url, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("download: %d body=%s", w.Code, w.Body.String())
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Fatalf("download is not an xlsx archive")
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="Index trends.xlsx"`) {
		t.Fatalf("unexpected content-disposition: %s", cd)
	}

	// 一次性链接
	w = doJSON(t, r, http.MethodGet, url, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second download should be 404, got %d", w.Code)
	}
}

func TestExportDirect(t *testing.T) {
	r, _ := newTestRouter(t)
	ds := createDataset(t, r, "Spreads", model.WidgetMarketSpreads, spreadRows())

	w := doJSON(t, r, http.MethodPost, "/api/datasets/"+ds.ID+"/export", nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("export: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Fatalf("export is not an xlsx archive")
	}
}

func TestBuildExportContentDisposition(t *testing.T) {
	t.Parallel()

	got := buildExportContentDisposition("Market spreads")
	want := "attachment; filename=\"Market spreads.xlsx\"; filename*=UTF-8''Market%20spreads.xlsx"
	if got != want {
		t.Fatalf("content-disposition mismatch:\n got: %s\nwant: %s", got, want)
	}

	got = buildExportContentDisposition("价差")
	want = "attachment; filename=\"export.xlsx\"; filename*=UTF-8''%E4%BB%B7%E5%B7%AE.xlsx"
	if got != want {
		t.Fatalf("content-disposition mismatch:\n got: %s\nwant: %s", got, want)
	}
}
