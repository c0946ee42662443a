package analyzer

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/use-agent/sitegrade/models"
)

// maxFindings caps how many findings one dimension keeps from the model.
const maxFindings = 8

// modelVerdict mirrors the JSON contract in responseSchema.
type modelVerdict struct {
	Score    *float64 `json:"score"`
	Summary  string   `json:"summary"`
	Findings []struct {
		Text     string `json:"text"`
		Severity string `json:"severity"`
	} `json:"findings"`
}

var (
	errNoScore      = errors.New("model response missing score")
	errScoreRange   = errors.New("model score outside 0-100")
	errNotJSON      = errors.New("model response is not valid JSON")
)

// parseVerdict decodes the model's structured response into score, summary,
// and findings. Models occasionally wrap JSON in markdown fences despite
// instructions, so fences are stripped before decoding.
func parseVerdict(raw string) (*float64, string, []models.Finding, error) {
	cleaned := stripFences(raw)

	var verdict modelVerdict
	if err := json.Unmarshal([]byte(cleaned), &verdict); err != nil {
		return nil, "", nil, errNotJSON
	}

	if verdict.Score == nil {
		return nil, "", nil, errNoScore
	}
	if *verdict.Score < 0 || *verdict.Score > 100 {
		return nil, "", nil, errScoreRange
	}

	findings := make([]models.Finding, 0, len(verdict.Findings))
	for _, f := range verdict.Findings {
		text := strings.TrimSpace(f.Text)
		if text == "" {
			continue
		}
		findings = append(findings, models.Finding{
			Text:     text,
			Severity: normalizeSeverity(f.Severity),
		})
		if len(findings) == maxFindings {
			break
		}
	}

	return verdict.Score, strings.TrimSpace(verdict.Summary), findings, nil
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// normalizeSeverity maps arbitrary model output to the known severity set,
// defaulting to info.
func normalizeSeverity(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case models.SeverityCritical:
		return models.SeverityCritical
	case models.SeverityHigh:
		return models.SeverityHigh
	case models.SeverityMedium, "moderate":
		return models.SeverityMedium
	case models.SeverityLow, "minor":
		return models.SeverityLow
	default:
		return models.SeverityInfo
	}
}
