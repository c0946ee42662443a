package models

import "time"

// Dimension identifies one of the four quality categories scored per report.
type Dimension string

const (
	DimensionPerformance Dimension = "performance"
	DimensionSecurity    Dimension = "security"
	DimensionTechnical   Dimension = "technical"
	DimensionUX          Dimension = "ux"
)

// CanonicalDimensions is the fixed order in which dimension results appear
// in every report, regardless of which dimensions the client requested or
// in what order the analyses completed.
var CanonicalDimensions = []Dimension{
	DimensionPerformance,
	DimensionSecurity,
	DimensionTechnical,
	DimensionUX,
}

// Valid reports whether d names a known dimension.
func (d Dimension) Valid() bool {
	switch d {
	case DimensionPerformance, DimensionSecurity, DimensionTechnical, DimensionUX:
		return true
	}
	return false
}

// Title returns the human-readable dimension name used in rendered reports.
func (d Dimension) Title() string {
	switch d {
	case DimensionPerformance:
		return "Performance"
	case DimensionSecurity:
		return "Security"
	case DimensionTechnical:
		return "Technical Quality"
	case DimensionUX:
		return "UX & Accessibility"
	}
	return string(d)
}

// Severity levels for findings, most to least urgent.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"
)

// Finding is a single observation produced by a dimension analysis.
type Finding struct {
	Text     string `json:"text"`
	Severity string `json:"severity"`
}

// DimensionResult holds the outcome of one dimension's analysis.
//
// A degraded result (Degraded true, Score nil) means the analysis could not
// produce a usable score — LLM timeout, rate limit, or unparseable model
// output. Degraded results are excluded from overall-score aggregation but
// always appear in the report so the failure is visible.
type DimensionResult struct {
	Dimension      Dimension `json:"dimension"`
	Score          *float64  `json:"score"` // 0-100; nil when degraded
	Summary        string    `json:"summary,omitempty"`
	Findings       []Finding `json:"findings"`
	Degraded       bool      `json:"degraded"`
	DegradedReason string    `json:"degraded_reason,omitempty"`

	// RawResponse preserves the verbatim model output for audit.
	RawResponse string `json:"raw_response,omitempty"`
}

// AssessmentReport is the terminal artifact of one pipeline invocation.
// Immutable once built; rendered to PDF and returned as JSON.
type AssessmentReport struct {
	ID          string            `json:"id"`
	URL         string            `json:"url"`
	FinalURL    string            `json:"final_url,omitempty"`
	StatusCode  int               `json:"status_code,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
	Dimensions  []DimensionResult `json:"dimensions"`

	// OverallScore is the weighted mean of non-degraded dimension scores.
	// Nil when every requested dimension degraded.
	OverallScore *float64 `json:"overall_score"`
	Summary      string   `json:"summary"`
}
