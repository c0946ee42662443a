package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/use-agent/sitegrade/models"
)

// RenderPDF serializes the report into a fixed PDF layout: header, overall
// score, one section per dimension (degraded ones render a visible
// "unavailable" marker, never disappear), and the summary.
//
// Rendering is a pure transformation: the document's creation and
// modification dates are pinned to the report's GeneratedAt, so rendering
// the same report twice produces byte-identical output.
func RenderPDF(r *models.AssessmentReport) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(r.GeneratedAt.UTC())
	pdf.SetModificationDate(r.GeneratedAt.UTC())
	pdf.SetTitle("Website Quality Report", true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// ── Header ────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Website Quality Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 6, r.URL, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Generated "+r.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"), "", 1, "L", false, 0, "")
	if r.StatusCode != 0 {
		pdf.CellFormat(0, 6, fmt.Sprintf("HTTP status: %d", r.StatusCode), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// ── Overall score ─────────────────────────────────────────────────
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 14)
	if r.OverallScore != nil {
		pdf.CellFormat(0, 10, fmt.Sprintf("Overall score: %.2f / 100", *r.OverallScore), "", 1, "L", false, 0, "")
	} else {
		pdf.SetTextColor(170, 30, 30)
		pdf.CellFormat(0, 10, "Overall score: unavailable", "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(2)

	// ── Dimension sections ────────────────────────────────────────────
	for _, dim := range r.Dimensions {
		renderDimension(pdf, dim)
	}

	// ── Summary ───────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 9, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, r.Summary, "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, models.NewAssessError(models.ErrCodeReportFailed, "PDF rendering failed", err)
	}
	return buf.Bytes(), nil
}

func renderDimension(pdf *fpdf.Fpdf, dim models.DimensionResult) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 9, dim.Dimension.Title(), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	if dim.Degraded || dim.Score == nil {
		pdf.SetTextColor(170, 30, 30)
		reason := dim.DegradedReason
		if reason == "" {
			reason = "unknown"
		}
		pdf.CellFormat(0, 6, "Score unavailable ("+reason+")", "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	} else {
		pdf.CellFormat(0, 6, fmt.Sprintf("Score: %.1f / 100", *dim.Score), "", 1, "L", false, 0, "")
	}

	if dim.Summary != "" {
		pdf.MultiCell(0, 5, dim.Summary, "", "L", false)
	}

	for _, f := range dim.Findings {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(10, 5, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(22, 5, "["+f.Severity+"]", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, f.Text, "", "L", false)
	}
	pdf.Ln(3)
}
