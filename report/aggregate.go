package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/sitegrade/models"
)

// Aggregate combines per-dimension results into the terminal report object.
//
// The overall score is the weighted arithmetic mean of the non-degraded
// dimension scores, using the configured per-dimension weights (missing
// entries weigh 1). When every dimension degraded, OverallScore stays nil —
// "unavailable" must never masquerade as zero. The numeric aggregation is
// fully deterministic; only the individual dimension scores carry the
// model's nondeterminism.
func Aggregate(targetURL, finalURL string, statusCode int, results []models.DimensionResult, weights map[string]float64, generatedAt time.Time) models.AssessmentReport {
	var weightSum, scoreSum float64
	available := 0
	for _, r := range results {
		if r.Degraded || r.Score == nil {
			continue
		}
		w, ok := weights[string(r.Dimension)]
		if !ok {
			w = 1
		}
		if w == 0 {
			continue
		}
		weightSum += w
		scoreSum += w * *r.Score
		available++
	}

	var overall *float64
	if weightSum > 0 {
		v := math.Round(scoreSum/weightSum*100) / 100
		overall = &v
	}

	return models.AssessmentReport{
		ID:           uuid.NewString(),
		URL:          targetURL,
		FinalURL:     finalURL,
		StatusCode:   statusCode,
		GeneratedAt:  generatedAt,
		Dimensions:   results,
		OverallScore: overall,
		Summary:      buildSummary(results, overall, available),
	}
}

// buildSummary templates a short narrative from the results: the overall
// number, plus the most severe finding of each scored dimension. No extra
// model call — the summary must not perturb score determinism.
func buildSummary(results []models.DimensionResult, overall *float64, available int) string {
	var b strings.Builder

	if overall == nil {
		b.WriteString("Overall score unavailable: no dimension produced a usable result.")
	} else {
		fmt.Fprintf(&b, "Overall score %.2f across %d of %d dimensions.", *overall, available, len(results))
	}

	for _, r := range results {
		if r.Degraded {
			fmt.Fprintf(&b, " %s: analysis unavailable (%s).", r.Dimension.Title(), r.DegradedReason)
			continue
		}
		if top := topFinding(r.Findings); top != "" {
			fmt.Fprintf(&b, " %s: %s", r.Dimension.Title(), top)
			if !strings.HasSuffix(top, ".") {
				b.WriteString(".")
			}
		}
	}

	return b.String()
}

// severityRank orders severities for picking the top finding.
var severityRank = map[string]int{
	models.SeverityCritical: 0,
	models.SeverityHigh:     1,
	models.SeverityMedium:   2,
	models.SeverityLow:      3,
	models.SeverityInfo:     4,
}

// topFinding returns the text of the most severe finding, preserving the
// model's ordering among equals.
func topFinding(findings []models.Finding) string {
	best := ""
	bestRank := len(severityRank)
	for _, f := range findings {
		rank, ok := severityRank[f.Severity]
		if !ok {
			rank = len(severityRank) - 1
		}
		if rank < bestRank {
			bestRank = rank
			best = f.Text
		}
	}
	return best
}
