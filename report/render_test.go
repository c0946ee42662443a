package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/use-agent/sitegrade/models"
)

func sampleReport() *models.AssessmentReport {
	overall := 81.25
	secScore := 90.0
	return &models.AssessmentReport{
		ID:          "11111111-2222-3333-4444-555555555555",
		URL:         "https://example.com/page",
		FinalURL:    "https://example.com/page",
		StatusCode:  200,
		GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Dimensions: []models.DimensionResult{
			{
				Dimension: models.DimensionSecurity,
				Score:     &secScore,
				Summary:   "Good header coverage.",
				Findings: []models.Finding{
					{Text: "No CSP header", Severity: models.SeverityHigh},
				},
			},
			{
				Dimension:      models.DimensionUX,
				Degraded:       true,
				DegradedReason: models.ErrCodeLLMFailure,
			},
		},
		OverallScore: &overall,
		Summary:      "Overall score 81.25 across 1 of 2 dimensions.",
	}
}

func TestRenderPDF_ProducesValidDocument(t *testing.T) {
	pdf, err := RenderPDF(sampleReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF magic header")
	}
	if len(pdf) < 500 {
		t.Errorf("PDF suspiciously small: %d bytes", len(pdf))
	}
}

func TestRenderPDF_ByteIdenticalAcrossRuns(t *testing.T) {
	r := sampleReport()

	first, err := RenderPDF(r)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, err := RenderPDF(r)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("rendering the same report twice produced different bytes")
	}
}

func TestRenderPDF_NilOverallScore(t *testing.T) {
	r := sampleReport()
	r.OverallScore = nil

	pdf, err := RenderPDF(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pdf) == 0 {
		t.Error("empty output")
	}
}
