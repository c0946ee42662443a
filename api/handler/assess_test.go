package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sitegrade/analyzer"
	"github.com/use-agent/sitegrade/cache"
	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/content"
	"github.com/use-agent/sitegrade/fetcher"
	"github.com/use-agent/sitegrade/models"
	"github.com/use-agent/sitegrade/report"
	"github.com/use-agent/sitegrade/store"
)

// fakeFetcher satisfies fetcher.PageFetcher without a browser.
type fakeFetcher struct {
	snap  *models.PageSnapshot
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ fetcher.Options) (*models.PageSnapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

// fakeCompleter returns a canned verdict per dimension, keyed on the
// uppercase dimension brief every prompt opens with.
type fakeCompleter struct {
	responses map[string]string
	errs      map[string]error
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, _ int) (string, error) {
	for dim, err := range f.errs {
		if strings.Contains(prompt, strings.ToUpper(dim)) {
			return "", err
		}
	}
	for dim, resp := range f.responses {
		if strings.Contains(prompt, strings.ToUpper(dim)) {
			return resp, nil
		}
	}
	return "", fmt.Errorf("no canned response")
}

func verdict(score float64) string {
	return fmt.Sprintf(`{"score": %g, "summary": "canned", "findings": [{"text": "one thing", "severity": "medium"}]}`, score)
}

func allVerdicts() map[string]string {
	return map[string]string{
		"performance": verdict(80),
		"security":    verdict(90),
		"technical":   verdict(70),
		"ux":          verdict(85),
	}
}

func sampleSnapshot() *models.PageSnapshot {
	return &models.PageSnapshot{
		URL:        "https://example.com",
		FinalURL:   "https://example.com/",
		HTML:       "<!DOCTYPE html><html><head><title>Hi</title></head><body><main><p>Hello there, a page worth grading for its various qualities.</p></main></body></html>",
		Title:      "Hi",
		StatusCode: 200,
		Timing:     models.PageTiming{TTFBMs: 100, LoadMs: 500},
	}
}

type testEnv struct {
	router  *gin.Engine
	fetcher *fakeFetcher
	store   *store.Store
	pdfDir  string
}

func newTestEnv(t *testing.T, ff *fakeFetcher, fc *fakeCompleter) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pdfDir := t.TempDir()
	writer, err := report.NewWriter(pdfDir)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	st, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	llmCfg := config.LLMConfig{CallTimeout: 5 * time.Second, MaxCompletionTokens: 512}
	deps := AssessDeps{
		Fetcher:         ff,
		Analyzer:        analyzer.New(fc, llmCfg),
		Content:         content.NewBuilder(),
		Writer:          writer,
		Store:           st,
		Cache:           cache.New(10),
		MaxPromptTokens: 2000,
	}

	r := gin.New()
	r.POST("/api/v1/assess", Assess(deps))
	r.GET("/api/v1/reports", ListReports(st))
	r.GET("/api/v1/reports/:id/pdf", DownloadReport(st))

	return &testEnv{router: r, fetcher: ff, store: st, pdfDir: pdfDir}
}

func (e *testEnv) post(t *testing.T, body string) (*httptest.ResponseRecorder, *models.AssessResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assess", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	e.router.ServeHTTP(w, req)

	var resp models.AssessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v\nbody: %s", err, w.Body.String())
	}
	return w, &resp
}

func TestAssess_Success(t *testing.T) {
	env := newTestEnv(t,
		&fakeFetcher{snap: sampleSnapshot()},
		&fakeCompleter{responses: allVerdicts()},
	)

	w, resp := env.post(t, `{"url": "https://example.com"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !resp.Success {
		t.Fatalf("success = false: %+v", resp.Error)
	}
	if resp.Report == nil {
		t.Fatal("report missing")
	}
	if resp.Report.OverallScore == nil || *resp.Report.OverallScore != 81.25 {
		t.Errorf("overall = %v, want 81.25", resp.Report.OverallScore)
	}
	if len(resp.Report.Dimensions) != 4 {
		t.Errorf("dimensions = %d, want 4", len(resp.Report.Dimensions))
	}
	if resp.Report.FinalURL != "https://example.com/" {
		t.Errorf("final url = %q", resp.Report.FinalURL)
	}
	if !strings.HasPrefix(resp.ReportPDF, "/api/v1/reports/") {
		t.Errorf("report_pdf = %q, want download path", resp.ReportPDF)
	}

	// A PDF landed on disk.
	entries, err := os.ReadDir(env.pdfDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("pdf dir entries = %d (%v), want 1", len(entries), err)
	}
	if !strings.HasSuffix(entries[0].Name(), ".pdf") {
		t.Errorf("written file = %q, want .pdf", entries[0].Name())
	}

	// And the index knows about it.
	rec, err := env.store.Get(context.Background(), resp.Report.ID)
	if err != nil {
		t.Fatalf("report not indexed: %v", err)
	}
	if rec.OverallScore == nil || *rec.OverallScore != 81.25 {
		t.Errorf("indexed score = %v, want 81.25", rec.OverallScore)
	}
}

func TestAssess_InvalidInput(t *testing.T) {
	env := newTestEnv(t,
		&fakeFetcher{snap: sampleSnapshot()},
		&fakeCompleter{responses: allVerdicts()},
	)

	tests := []struct {
		name, body string
	}{
		{"missing url", `{}`},
		{"not a url", `{"url": "definitely not"}`},
		{"unknown dimension", `{"url": "https://example.com", "dimensions": ["seo"]}`},
		{"timeout too large", `{"url": "https://example.com", "timeout": 999}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := env.post(t, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if resp.Success {
				t.Error("success should be false")
			}
			if resp.Error == nil || resp.Error.Code != models.ErrCodeInvalidInput {
				t.Errorf("error = %+v, want INVALID_INPUT", resp.Error)
			}
		})
	}

	if env.fetcher.calls != 0 {
		t.Errorf("fetcher called %d times for invalid requests", env.fetcher.calls)
	}
}

func TestAssess_FetchTimeout(t *testing.T) {
	env := newTestEnv(t,
		&fakeFetcher{err: models.NewAssessError(models.ErrCodeTimeout, "page load timed out", nil)},
		&fakeCompleter{responses: allVerdicts()},
	)

	w, resp := env.post(t, `{"url": "https://slow.example.com"}`)

	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", w.Code)
	}
	if resp.Success || resp.Error == nil || resp.Error.Code != models.ErrCodeTimeout {
		t.Errorf("error = %+v, want FETCH_TIMEOUT", resp.Error)
	}
	if resp.Report != nil {
		t.Error("no report should be produced on fetch failure")
	}

	// Nothing written, nothing indexed.
	entries, _ := os.ReadDir(env.pdfDir)
	if len(entries) != 0 {
		t.Errorf("pdf dir entries = %d, want 0", len(entries))
	}
	records, err := env.store.List(context.Background(), 10)
	if err != nil || len(records) != 0 {
		t.Errorf("indexed records = %d (%v), want 0", len(records), err)
	}
}

func TestAssess_NavigationFailed(t *testing.T) {
	env := newTestEnv(t,
		&fakeFetcher{err: models.NewAssessError(models.ErrCodeNavigation, "dns failure", nil)},
		&fakeCompleter{responses: allVerdicts()},
	)

	w, resp := env.post(t, `{"url": "https://doesnotexist.example.com"}`)

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeNavigation {
		t.Errorf("error = %+v, want NAVIGATION_FAILED", resp.Error)
	}
}

func TestAssess_DegradedDimensionStillSucceeds(t *testing.T) {
	fc := &fakeCompleter{
		responses: allVerdicts(),
		errs: map[string]error{
			"security": models.NewAssessError(models.ErrCodeLLMRateLimited, "429", nil),
		},
	}
	env := newTestEnv(t, &fakeFetcher{snap: sampleSnapshot()}, fc)

	w, resp := env.post(t, `{"url": "https://example.com"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; partial failure is still a report", w.Code)
	}
	if !resp.Success {
		t.Fatal("success should be true with a degraded dimension")
	}

	var sec *models.DimensionResult
	for i := range resp.Report.Dimensions {
		if resp.Report.Dimensions[i].Dimension == models.DimensionSecurity {
			sec = &resp.Report.Dimensions[i]
		}
	}
	if sec == nil || !sec.Degraded {
		t.Fatalf("security dimension should be degraded: %+v", sec)
	}
	// Mean of the remaining 80, 70, 85.
	want := 78.33
	if resp.Report.OverallScore == nil || *resp.Report.OverallScore != want {
		t.Errorf("overall = %v, want %v", resp.Report.OverallScore, want)
	}
}

func TestAssess_DimensionSubset(t *testing.T) {
	env := newTestEnv(t,
		&fakeFetcher{snap: sampleSnapshot()},
		&fakeCompleter{responses: allVerdicts()},
	)

	_, resp := env.post(t, `{"url": "https://example.com", "dimensions": ["ux", "performance"]}`)

	if len(resp.Report.Dimensions) != 2 {
		t.Fatalf("dimensions = %d, want 2", len(resp.Report.Dimensions))
	}
	// Canonical order, not request order.
	if resp.Report.Dimensions[0].Dimension != models.DimensionPerformance {
		t.Errorf("dimensions[0] = %s, want performance", resp.Report.Dimensions[0].Dimension)
	}
	if resp.Report.Dimensions[1].Dimension != models.DimensionUX {
		t.Errorf("dimensions[1] = %s, want ux", resp.Report.Dimensions[1].Dimension)
	}
	// (80 + 85) / 2
	if *resp.Report.OverallScore != 82.5 {
		t.Errorf("overall = %v, want 82.5", *resp.Report.OverallScore)
	}
}

func TestAssess_CacheHit(t *testing.T) {
	ff := &fakeFetcher{snap: sampleSnapshot()}
	env := newTestEnv(t, ff, &fakeCompleter{responses: allVerdicts()})

	body := `{"url": "https://example.com", "max_age": 60000}`

	_, first := env.post(t, body)
	if first.CacheStatus != "miss" {
		t.Errorf("first cache status = %q, want miss", first.CacheStatus)
	}

	_, second := env.post(t, body)
	if second.CacheStatus != "hit" {
		t.Errorf("second cache status = %q, want hit", second.CacheStatus)
	}
	if ff.calls != 1 {
		t.Errorf("fetcher calls = %d, want 1 (second served from cache)", ff.calls)
	}
	if second.Report.ID != first.Report.ID {
		t.Errorf("cached response should carry the original report")
	}
}

func TestDownloadReport_NotFound(t *testing.T) {
	env := newTestEnv(t,
		&fakeFetcher{snap: sampleSnapshot()},
		&fakeCompleter{responses: allVerdicts()},
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/nope/pdf", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDownloadReport_ServesPDF(t *testing.T) {
	env := newTestEnv(t,
		&fakeFetcher{snap: sampleSnapshot()},
		&fakeCompleter{responses: allVerdicts()},
	)

	_, resp := env.post(t, `{"url": "https://example.com"}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, resp.ReportPDF, nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
		t.Error("download did not return a PDF document")
	}
}

func TestListReports(t *testing.T) {
	env := newTestEnv(t,
		&fakeFetcher{snap: sampleSnapshot()},
		&fakeCompleter{responses: allVerdicts()},
	)

	env.post(t, `{"url": "https://example.com"}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var list models.ReportListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if list.Total != 1 || len(list.Reports) != 1 {
		t.Fatalf("total = %d, want 1", list.Total)
	}
	if list.Reports[0].URL != "https://example.com" {
		t.Errorf("url = %q", list.Reports[0].URL)
	}
}
