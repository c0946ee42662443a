package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sitegrade/analyzer"
	"github.com/use-agent/sitegrade/cache"
	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/content"
	"github.com/use-agent/sitegrade/facts"
	"github.com/use-agent/sitegrade/fetcher"
	"github.com/use-agent/sitegrade/models"
	"github.com/use-agent/sitegrade/report"
	"github.com/use-agent/sitegrade/store"
	"github.com/use-agent/sitegrade/webhook"
)

// AssessDeps bundles everything the assess pipeline needs. Fetcher is an
// interface so tests can run the full handler against a fake browser.
type AssessDeps struct {
	Fetcher         fetcher.PageFetcher
	Analyzer        *analyzer.Analyzer
	Content         *content.Builder
	Writer          *report.Writer
	Store           *store.Store
	Cache           *cache.Cache
	Weights         map[string]float64
	MaxPromptTokens int
	Webhook         config.WebhookConfig
}

// Assess returns the handler for POST /api/v1/assess.
//
// Pipeline:
//  1. Parse & validate request, apply defaults.      (400 on bad input)
//  2. Cache lookup (when the client opts in).
//  3. Fetch      → PageSnapshot                       (records fetch_ms)
//  4. Extract    → PageFacts + bounded content excerpt
//  5. Analyze    → one DimensionResult per requested dimension,
//     dispatched concurrently, degraded on per-dimension failure
//     (records analysis_ms)
//  6. Aggregate  → AssessmentReport
//  7. Render+persist PDF, index the report           (records render_ms)
//  8. Respond with the structured report and the PDF download path.
func Assess(d AssessDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.AssessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.AssessResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()
		dims := req.RequestedDimensions()

		// ── 2. Cache lookup ─────────────────────────────────────────
		cacheKey := cache.Key(req.URL, req.Dimensions)
		if d.Cache != nil && req.MaxAge > 0 {
			if cached, hit := d.Cache.Get(cacheKey, req.MaxAge); hit {
				// Copy before mutating: the cached entry is shared.
				resp := *cached
				resp.CacheStatus = "hit"
				resp.Timing = models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				}
				c.JSON(http.StatusOK, &resp)
				return
			}
		}

		// ── 3. Fetch ────────────────────────────────────────────────
		fetchStart := time.Now()
		snap, err := d.Fetcher.Fetch(c.Request.Context(), fetcher.Options{
			URL:          req.URL,
			Timeout:      time.Duration(req.Timeout) * time.Second,
			Stealth:      req.Stealth,
			SetupScripts: req.SetupScripts,
		})
		fetchMs := time.Since(fetchStart).Milliseconds()

		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
				FetchMs: fetchMs,
			})
			return
		}

		// ── 4. Extract facts + excerpt ──────────────────────────────
		pageFacts := facts.Extract(snap)
		excerpt := d.Content.Excerpt(snap.HTML, req.URL, req.CSSSelector, d.MaxPromptTokens)

		// ── 5. Analyze dimensions (concurrent) ──────────────────────
		analysisStart := time.Now()
		results := d.Analyzer.Analyze(c.Request.Context(), dims, pageFacts, req.URL, excerpt)
		analysisMs := time.Since(analysisStart).Milliseconds()

		// ── 6. Aggregate ────────────────────────────────────────────
		rep := report.Aggregate(req.URL, snap.FinalURL, snap.StatusCode,
			results, d.Weights, time.Now().UTC())

		// ── 7. Render + persist ─────────────────────────────────────
		renderStart := time.Now()
		pdf, err := report.RenderPDF(&rep)
		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs:    time.Since(totalStart).Milliseconds(),
				FetchMs:    fetchMs,
				AnalysisMs: analysisMs,
			})
			return
		}
		pdfPath, err := d.Writer.Write(&rep, pdf)
		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs:    time.Since(totalStart).Milliseconds(),
				FetchMs:    fetchMs,
				AnalysisMs: analysisMs,
			})
			return
		}
		// An index failure loses the listing entry but not the report
		// itself; log and keep going.
		if d.Store != nil {
			if insertErr := d.Store.Insert(c.Request.Context(), &rep, pdfPath); insertErr != nil {
				slog.Warn("failed to index report", "id", rep.ID, "error", insertErr)
			}
		}
		renderMs := time.Since(renderStart).Milliseconds()

		// ── 8. Notify + respond ─────────────────────────────────────
		if d.Webhook.URL != "" {
			webhook.DeliverAsync(d.Webhook.URL, d.Webhook.Secret, &webhook.Event{
				Type:         "report.completed",
				ReportID:     rep.ID,
				URL:          rep.URL,
				OverallScore: rep.OverallScore,
				Timestamp:    rep.GeneratedAt.Unix(),
			})
		}

		resp := &models.AssessResponse{
			Success:   true,
			Report:    &rep,
			ReportPDF: "/api/v1/reports/" + rep.ID + "/pdf",
			Timing: models.TimingInfo{
				TotalMs:    time.Since(totalStart).Milliseconds(),
				FetchMs:    fetchMs,
				AnalysisMs: analysisMs,
				RenderMs:   renderMs,
			},
		}

		if d.Cache != nil && req.MaxAge > 0 {
			resp.CacheStatus = "miss"
			d.Cache.Set(cacheKey, resp)
		}

		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps an AssessError to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	assessErr, ok := err.(*models.AssessError)
	if !ok {
		assessErr = models.NewAssessError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(assessErr), models.AssessResponse{
		Success: false,
		Error:   assessErr.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.AssessError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited, models.ErrCodeLLMRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized, models.ErrCodeLLMAuthFailure:
		return http.StatusUnauthorized // 401
	case models.ErrCodeLLMFailure:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}
