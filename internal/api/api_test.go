package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sadopc/focusring/internal/catalog"
	"github.com/sadopc/focusring/internal/day"
	"github.com/sadopc/focusring/internal/store"
	"github.com/sadopc/focusring/internal/suggest"
	"github.com/sadopc/focusring/internal/summary"
)

// setupTestServer wires a server over an in-memory store.
func setupTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	srv := httptest.NewServer(NewServer(st, slog.Default()).Handler("api"))
	t.Cleanup(srv.Close)
	return srv, st
}

func postBlock(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/block", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/block: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url string, dst any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if dst != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv, _ := setupTestServer(t)
	resp := getJSON(t, srv.URL+"/api/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	srv, _ := setupTestServer(t)
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected echoed id, got %q", got)
	}
}

func TestPostBlockMergesAndClears(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp := postBlock(t, srv, `{"date":"2025-03-14","slot_index":4,"category":"STUDY","focus":4}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp = postBlock(t, srv, `{"date":"2025-03-14","slot_index":4,"memo":"deck"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var blocks []day.Block
	getJSON(t, srv.URL+"/api/day/2025-03-14", &blocks)
	if len(blocks) != day.SlotsPerDay {
		t.Fatalf("expected %d blocks, got %d", day.SlotsPerDay, len(blocks))
	}
	b := blocks[4]
	if b.CategoryCode() != "STUDY" || b.Focus == nil || *b.Focus != 4 || b.Memo == nil || *b.Memo != "deck" {
		t.Fatalf("unexpected merged block: %+v", b)
	}

	resp = postBlock(t, srv, `{"date":"2025-03-14","slot_index":4,"focus":null}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	getJSON(t, srv.URL+"/api/day/2025-03-14", &blocks)
	if blocks[4].Focus != nil {
		t.Fatal("null focus should clear the stored value")
	}
	if blocks[4].CategoryCode() != "STUDY" {
		t.Fatal("category should survive a focus-only clear")
	}
}

func TestPostBlockValidation(t *testing.T) {
	srv, _ := setupTestServer(t)

	cases := map[string]string{
		"slot out of range": `{"date":"2025-03-14","slot_index":80,"category":"STUDY"}`,
		"focus too high":    `{"date":"2025-03-14","slot_index":0,"focus":7}`,
		"missing slot":      `{"date":"2025-03-14","category":"STUDY"}`,
		"malformed":         `{"date":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := postBlock(t, srv, body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			var e errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if e.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestDayBadDate(t *testing.T) {
	srv, _ := setupTestServer(t)
	resp := getJSON(t, srv.URL+"/api/day/yesterday", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCategories(t *testing.T) {
	srv, _ := setupTestServer(t)
	var list []catalog.Category
	getJSON(t, srv.URL+"/api/categories", &list)
	if len(list) != 16 {
		t.Fatalf("expected 16 categories, got %d", len(list))
	}
	if list[0].Code != "STUDY" {
		t.Fatalf("expected STUDY first, got %s", list[0].Code)
	}
}

func TestSummaryMatchesLocalCompute(t *testing.T) {
	srv, st := setupTestServer(t)
	for slot := 10; slot < 14; slot++ {
		postBlock(t, srv, `{"date":"2025-03-14","slot_index":`+itoa(slot)+`,"category":"AI","focus":3}`)
	}
	postBlock(t, srv, `{"date":"2025-03-14","slot_index":14,"category":"SNS"}`)

	var got summary.Daily
	getJSON(t, srv.URL+"/api/summary/2025-03-14", &got)

	snap, err := st.GetDay(t.Context(), "2025-03-14")
	if err != nil {
		t.Fatal(err)
	}
	want := summary.Compute(snap, catalog.Default())
	if got.FocusScore != want.FocusScore || got.DeepStreakMax != want.DeepStreakMax ||
		got.DistractRatio != want.DistractRatio || got.TotalFilled != want.TotalFilled {
		t.Fatalf("server summary %+v differs from local %+v", got, want)
	}
	if got.FocusScore != 4*4-3 {
		t.Fatalf("expected focus score 13, got %d", got.FocusScore)
	}
}

func TestTrend(t *testing.T) {
	srv, _ := setupTestServer(t)
	postBlock(t, srv, `{"date":"2025-03-12","slot_index":0,"category":"STUDY"}`)
	postBlock(t, srv, `{"date":"2025-03-14","slot_index":0,"category":"ENGLISH"}`)

	var r summary.TrendReport
	getJSON(t, srv.URL+"/api/trend?from=2025-03-12&to=2025-03-14", &r)
	if len(r.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(r.Points))
	}
	if r.PeriodAvgScore != 3.5 {
		t.Fatalf("expected avg score 3.5, got %v", r.PeriodAvgScore)
	}
}

func TestTrendRejectsLongRange(t *testing.T) {
	srv, _ := setupTestServer(t)
	resp := getJSON(t, srv.URL+"/api/trend?from=2025-01-01&to=2025-12-31", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSuggestions(t *testing.T) {
	srv, _ := setupTestServer(t)
	var a suggest.Advice
	getJSON(t, srv.URL+"/api/suggestions/2025-03-14", &a)
	if len(a.Suggestions) == 0 || a.Summary == "" {
		t.Fatalf("expected advice for an empty day, got %+v", a)
	}
}

func TestMetrics(t *testing.T) {
	srv, _ := setupTestServer(t)
	postBlock(t, srv, `{"date":"2025-03-14","slot_index":0,"category":"STUDY"}`)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `focusring_block_writes_total{outcome="ok"} 1`) {
		t.Fatalf("block write counter missing from metrics:\n%s", body)
	}
}

func TestBlockRequestJSON(t *testing.T) {
	req := BlockRequest{Date: "2025-03-14", Slot: 2, Update: day.Update{Memo: day.Null[string]()}}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	json.Unmarshal(data, &m)
	if _, ok := m["category"]; ok {
		t.Error("absent category must not be sent")
	}
	if v, ok := m["memo"]; !ok || v != nil {
		t.Errorf("expected memo null, got %v (present=%v)", v, ok)
	}

	var back BlockRequest
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Date != req.Date || back.Slot != req.Slot || !back.Update.Memo.IsNull() {
		t.Fatalf("unexpected decode: %+v", back)
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func postBulk(t *testing.T, srv *httptest.Server, body string) (*http.Response, BulkResponse) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/bulk", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/bulk: %v", err)
	}
	defer resp.Body.Close()
	var out BulkResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode bulk response: %v", err)
		}
	}
	return resp, out
}

func TestHealthReportsDatabaseDown(t *testing.T) {
	srv, st := setupTestServer(t)
	st.Close()

	resp := getJSON(t, srv.URL+"/api/health", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestBulkWritesAndSkipsInvalid(t *testing.T) {
	srv, st := setupTestServer(t)

	resp, out := postBulk(t, srv, `{"blocks":[
		{"date":"2025-03-14","slot_index":0,"category":"STUDY","focus":4},
		{"date":"2025-03-14","slot_index":1,"category":"AI"},
		{"date":"2025-03-14","slot_index":80,"category":"AI"},
		{"date":"2025-03-15","slot_index":2,"focus":9}
	]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if out.Processed != 2 || out.Requested != 4 {
		t.Fatalf("unexpected counts: %+v", out)
	}

	b, err := st.GetBlock(context.Background(), "2025-03-14", 0)
	if err != nil {
		t.Fatal(err)
	}
	if b.CategoryCode() != "STUDY" || b.Focus == nil || *b.Focus != 4 {
		t.Fatalf("unexpected block: %+v", b)
	}
	b, _ = st.GetBlock(context.Background(), "2025-03-15", 2)
	if b.Focus != nil {
		t.Fatal("an out-of-range focus must not be written")
	}
}

func TestBulkValidation(t *testing.T) {
	srv, st := setupTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty list", `{"blocks":[]}`},
		{"missing list", `{}`},
		{"bad json", `{"blocks":`},
		{"missing slot", `{"blocks":[{"date":"2025-03-14","category":"AI"}]}`},
		{"bad date", `{"blocks":[{"date":"2025-03-14","slot_index":0,"category":"AI"},{"date":"14/03/2025","slot_index":1,"category":"AI"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := postBulk(t, srv, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}

	// A bad date anywhere rejects the whole request before any write.
	b, _ := st.GetBlock(context.Background(), "2025-03-14", 0)
	if b.Filled() {
		t.Fatal("no block should be written when a date is invalid")
	}
}

func TestStats(t *testing.T) {
	srv, st := setupTestServer(t)
	ctx := context.Background()
	st.SetBlock(ctx, "2025-03-13", 0, day.Update{Category: day.Set("STUDY")})
	st.SetBlock(ctx, "2025-03-14", 5, day.Update{Category: day.Set("AI")})

	var out StatsResponse
	resp := getJSON(t, srv.URL+"/api/stats", &out)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	db := out.Database
	if db.FilledBlocks != 2 || db.FirstDate != "2025-03-13" || db.LastDate != "2025-03-14" {
		t.Fatalf("unexpected stats: %+v", db)
	}
	if db.TotalCategories != catalog.Default().Len() {
		t.Fatalf("categories = %d", db.TotalCategories)
	}
	if out.CurrentDate == "" {
		t.Fatal("current_date should be set")
	}
}

// bareBackend hides the optional Stats and Ping methods of the store.
type bareBackend struct{ Backend }

func TestStatsUnsupportedBackend(t *testing.T) {
	st, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	srv := httptest.NewServer(NewServer(bareBackend{st}, nil).Handler("/api"))
	defer srv.Close()

	if resp := getJSON(t, srv.URL+"/api/stats", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if resp := getJSON(t, srv.URL+"/api/health", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("health without a pinger should be 200, got %d", resp.StatusCode)
	}
}
