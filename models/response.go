package models

import "time"

// AssessResponse is the response for POST /api/v1/assess.
type AssessResponse struct {
	// Success indicates whether the assessment completed. Partial dimension
	// failures still count as success; only fetch/infrastructure failures
	// set this to false.
	Success bool `json:"success"`

	// Report is the full assessment report. Nil when Success is false.
	Report *AssessmentReport `json:"report,omitempty"`

	// ReportPDF is the API path for downloading the rendered document.
	ReportPDF string `json:"report_pdf,omitempty"`

	// Timing provides duration breakdowns for the pipeline phases.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each pipeline phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// FetchMs is the time spent navigating and rendering the page.
	FetchMs int64 `json:"fetch_ms"`

	// AnalysisMs is the time spent in the dimension analyzers (wall clock
	// of the concurrent join, not the per-dimension sum).
	AnalysisMs int64 `json:"analysis_ms"`

	// RenderMs is the time spent producing and writing the PDF.
	RenderMs int64 `json:"render_ms"`
}

// ReportRecord is one row in the report index, returned by GET /api/v1/reports.
type ReportRecord struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	OverallScore *float64  `json:"overall_score"`
	Summary      string    `json:"summary,omitempty"`
	PDFPath      string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ReportListResponse is the response for GET /api/v1/reports.
type ReportListResponse struct {
	Reports []ReportRecord `json:"reports"`
	Total   int            `json:"total"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}
