package analyzer

import (
	"errors"
	"testing"
)

func TestParseVerdict_Valid(t *testing.T) {
	raw := `{"score": 85, "summary": "Solid overall.", "findings": [
		{"text": "Missing CSP header", "severity": "high"},
		{"text": "One image without alt text", "severity": "low"}
	]}`

	score, summary, findings, err := parseVerdict(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score == nil || *score != 85 {
		t.Errorf("score = %v, want 85", score)
	}
	if summary != "Solid overall." {
		t.Errorf("summary = %q", summary)
	}
	if len(findings) != 2 {
		t.Fatalf("findings = %d, want 2", len(findings))
	}
	if findings[0].Severity != "high" || findings[1].Severity != "low" {
		t.Errorf("severities = %q, %q", findings[0].Severity, findings[1].Severity)
	}
}

func TestParseVerdict_MarkdownFences(t *testing.T) {
	raw := "```json\n{\"score\": 70, \"summary\": \"ok\", \"findings\": []}\n```"

	score, _, _, err := parseVerdict(raw)
	if err != nil {
		t.Fatalf("fenced JSON should parse: %v", err)
	}
	if *score != 70 {
		t.Errorf("score = %v, want 70", *score)
	}
}

func TestParseVerdict_MissingScore(t *testing.T) {
	_, _, _, err := parseVerdict(`{"summary": "no score here", "findings": []}`)
	if !errors.Is(err, errNoScore) {
		t.Errorf("err = %v, want errNoScore", err)
	}
}

func TestParseVerdict_ScoreOutOfRange(t *testing.T) {
	for _, raw := range []string{
		`{"score": -5, "summary": "", "findings": []}`,
		`{"score": 130, "summary": "", "findings": []}`,
	} {
		if _, _, _, err := parseVerdict(raw); !errors.Is(err, errScoreRange) {
			t.Errorf("parseVerdict(%s) err = %v, want errScoreRange", raw, err)
		}
	}
}

func TestParseVerdict_NotJSON(t *testing.T) {
	_, _, _, err := parseVerdict("I think this site deserves an 85 out of 100.")
	if !errors.Is(err, errNotJSON) {
		t.Errorf("err = %v, want errNotJSON", err)
	}
}

func TestParseVerdict_FindingsCappedAndCleaned(t *testing.T) {
	raw := `{"score": 50, "summary": "s", "findings": [
		{"text": "a", "severity": "critical"},
		{"text": "  ", "severity": "high"},
		{"text": "b", "severity": "moderate"},
		{"text": "c", "severity": "minor"},
		{"text": "d", "severity": "catastrophic"},
		{"text": "e"}, {"text": "f"}, {"text": "g"},
		{"text": "h"}, {"text": "i"}, {"text": "j"}
	]}`

	_, _, findings, err := parseVerdict(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != maxFindings {
		t.Fatalf("findings = %d, want capped at %d", len(findings), maxFindings)
	}
	// Blank text dropped; aliases and unknowns normalized.
	if findings[0].Severity != "critical" {
		t.Errorf("findings[0] severity = %q", findings[0].Severity)
	}
	if findings[1].Text != "b" || findings[1].Severity != "medium" {
		t.Errorf("moderate should normalize to medium, got %+v", findings[1])
	}
	if findings[2].Severity != "low" {
		t.Errorf("minor should normalize to low, got %q", findings[2].Severity)
	}
	if findings[3].Severity != "info" {
		t.Errorf("unknown severity should default to info, got %q", findings[3].Severity)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripFences(tt.in); got != tt.want {
			t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
