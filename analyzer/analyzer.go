// Package analyzer runs the per-dimension quality judgments. Each dimension
// builds a prompt from the extracted facts plus the content excerpt and
// delegates scoring to the completion collaborator. Failures are absorbed:
// a timeout, rate limit, or unparseable response degrades that one
// dimension and never fails the request.
package analyzer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/llm"
	"github.com/use-agent/sitegrade/models"
)

// Analyzer dispatches dimension analyses against a Completer.
// Safe for concurrent use; it holds no per-request state.
type Analyzer struct {
	completer           llm.Completer
	callTimeout         time.Duration
	maxCompletionTokens int
}

// New creates an Analyzer bound to the given completion collaborator.
func New(completer llm.Completer, cfg config.LLMConfig) *Analyzer {
	return &Analyzer{
		completer:           completer,
		callTimeout:         cfg.CallTimeout,
		maxCompletionTokens: cfg.MaxCompletionTokens,
	}
}

// Analyze runs every requested dimension concurrently and joins before
// returning. dims must already be in canonical order (the request model
// guarantees this); results preserve that order regardless of which
// analysis finishes first.
func (a *Analyzer) Analyze(ctx context.Context, dims []models.Dimension, facts models.PageFacts, pageURL, excerpt string) []models.DimensionResult {
	results := make([]models.DimensionResult, len(dims))

	var wg sync.WaitGroup
	for i, dim := range dims {
		wg.Add(1)
		go func(i int, dim models.Dimension) {
			defer wg.Done()
			results[i] = a.analyzeOne(ctx, dim, facts, pageURL, excerpt)
		}(i, dim)
	}
	wg.Wait()

	return results
}

// analyzeOne performs a single dimension's completion call and parses the
// verdict. Every failure path returns a degraded result.
func (a *Analyzer) analyzeOne(ctx context.Context, dim models.Dimension, facts models.PageFacts, pageURL, excerpt string) models.DimensionResult {
	prompt := buildPrompt(dim, facts, pageURL, excerpt)

	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	raw, err := a.completer.Complete(callCtx, prompt, a.maxCompletionTokens)
	if err != nil {
		code := models.ErrCodeLLMFailure
		var assessErr *models.AssessError
		if errors.As(err, &assessErr) {
			code = assessErr.Code
		} else if errors.Is(err, context.DeadlineExceeded) {
			code = models.ErrCodeTimeout
		}
		slog.Warn("dimension analysis failed",
			"dimension", dim, "url", pageURL, "code", code, "error", err,
		)
		return degraded(dim, code, "analysis did not complete: "+code)
	}

	score, summary, findings, parseErr := parseVerdict(raw)
	if parseErr != nil {
		slog.Warn("dimension response unparseable",
			"dimension", dim, "url", pageURL, "error", parseErr,
		)
		result := degraded(dim, models.ErrCodeModelParse, "model returned unparseable output")
		result.RawResponse = raw
		return result
	}

	return models.DimensionResult{
		Dimension:   dim,
		Score:       score,
		Summary:     summary,
		Findings:    findings,
		RawResponse: raw,
	}
}

// degraded builds the placeholder result for a failed dimension: score
// unavailable, one info finding naming the cause, visibly marked.
func degraded(dim models.Dimension, code, note string) models.DimensionResult {
	return models.DimensionResult{
		Dimension:      dim,
		Degraded:       true,
		DegradedReason: code,
		Findings: []models.Finding{
			{Text: note, Severity: models.SeverityInfo},
		},
	}
}
