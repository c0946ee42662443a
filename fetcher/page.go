package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/sitegrade/models"
	"github.com/ysmood/gson"
)

// Fetch renders the target URL and captures everything downstream stages
// need: rendered HTML, load timing, response headers (via the probe), and
// console/network diagnostics.
//
// Lifecycle:
//
//  1. URL validation          – reject non-absolute URLs before any I/O
//  2. Timeout guard           – hard deadline on the entire operation
//  3. Header probe            – plain HTTP in parallel with the browser
//  4. Acquire page            – borrow a tab from the pool (or create one)
//  5. DEFER: cleanup          – about:blank + return to pool (leak prevention)
//  6. Stealth injection       – before navigation, or it has no effect
//  7. Diagnostics listeners   – before navigation, or early events are lost
//  8. Navigate + wait         – DOM-stable heuristic
//  9. Timing + setup scripts  – navigation entry metrics, user JS
//  10. Extract                – page.HTML() + document.title + final URL
func (f *Fetcher) Fetch(ctx context.Context, opts Options) (*models.PageSnapshot, error) {
	// ── 1. URL validation ─────────────────────────────────────────────
	target, err := url.Parse(opts.URL)
	if err != nil || !target.IsAbs() || (target.Scheme != "http" && target.Scheme != "https") {
		return nil, models.NewAssessError(
			models.ErrCodeInvalidInput,
			"target must be an absolute http(s) URL",
			err,
		)
	}

	// ── 2. Timeout guard ──────────────────────────────────────────────
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = f.fetchCfg.DefaultTimeout
	}
	if timeout > f.fetchCfg.MaxTimeout {
		timeout = f.fetchCfg.MaxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// ── 3. Header probe (concurrent, best-effort) ─────────────────────
	// Rod has no cheap way to expose the main document's response headers,
	// so a plain HTTP request with a Chrome TLS fingerprint runs alongside
	// the browser navigation. Its failure never fails the fetch.
	probeCh := make(chan *probeResult, 1)
	go func() {
		res, probeErr := f.probe.fetch(ctx, opts.URL)
		if probeErr != nil {
			slog.Debug("header probe failed", "url", opts.URL, "error", probeErr)
			probeCh <- nil
			return
		}
		probeCh <- res
	}()

	// ── 4. Acquire page from pool ─────────────────────────────────────
	f.activePages.Add(1)
	defer f.activePages.Add(-1)

	page, acquireErr := f.pagePool.Get(func() (*rod.Page, error) {
		return f.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		return nil, models.NewAssessError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	// ── 5. CRITICAL DEFER: prevent DOM memory leak + guarantee pool return
	// about:blank uses the ORIGINAL page reference (without request
	// context), so cleanup succeeds even if the request context expired.
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		f.pagePool.Put(page)
	}()

	// ── 6. Stealth injection ──────────────────────────────────────────
	if opts.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	// ── 6b. Plausible Referer for stealth fetches ────────────────────
	if opts.Stealth {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{
				"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(target.Hostname())),
			},
		}.Call(page)
	}

	// ── 7. Diagnostics listeners (must precede Navigate) ─────────────
	p := page.Context(ctx)
	diag := watchDiagnostics(p)

	// ── 8. Navigate + wait ────────────────────────────────────────────
	if navErr := p.Navigate(opts.URL); navErr != nil {
		return nil, categorizeError(navErr, "navigation to target URL failed")
	}
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr,
		)
	}

	// ── 9a. Navigation timing + status code ──────────────────────────
	// performance.getEntriesByType("navigation") avoids CDP Network event
	// listeners, which conflict with other domains on recent Chromium.
	timing := models.PageTiming{}
	statusCode := 0
	if res, evalErr := p.Eval(`() => {
		try {
			const nav = performance.getEntriesByType("navigation")[0];
			if (!nav) return {status: 0, ttfb: 0, load: 0};
			return {
				status: nav.responseStatus || 0,
				ttfb: nav.responseStart - nav.requestStart,
				load: nav.loadEventEnd > 0 ? nav.loadEventEnd - nav.startTime : 0,
			};
		} catch (e) { return {status: 0, ttfb: 0, load: 0}; }
	}`); evalErr == nil {
		statusCode = res.Value.Get("status").Int()
		timing.TTFBMs = res.Value.Get("ttfb").Num()
		timing.LoadMs = res.Value.Get("load").Num()
	}

	// ── 9b. Setup scripts (best-effort) ───────────────────────────────
	for i, script := range opts.SetupScripts {
		if _, evalErr := p.Eval(fmt.Sprintf("() => { %s }", script)); evalErr != nil {
			slog.Warn("setup script failed", "index", i, "error", evalErr)
		}
	}

	// ── 10. Extract rendered HTML ─────────────────────────────────────
	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeError(htmlErr, "failed to extract page HTML")
	}

	title := evalStringOrEmpty(p, `() => document.title`)
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = opts.URL
	}

	consoleErrors, failedRequests := diag.snapshot()

	snap := &models.PageSnapshot{
		URL:            opts.URL,
		FinalURL:       finalURL,
		HTML:           rawHTML,
		Title:          title,
		StatusCode:     statusCode,
		RedirectCount:  -1,
		Timing:         timing,
		ConsoleErrors:  consoleErrors,
		FailedRequests: failedRequests,
	}

	// Merge the probe result. Nil means the probe failed: header-derived
	// facts degrade to absent instead of failing the request.
	if probe := <-probeCh; probe != nil {
		snap.Headers = probe.headers
		snap.RedirectCount = probe.redirects
		if snap.StatusCode == 0 {
			snap.StatusCode = probe.statusCode
		}
	}

	return snap, nil
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// categorizeError wraps raw errors into typed AssessErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.AssessError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewAssessError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewAssessError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewAssessError(models.ErrCodeNavigation, msg, err)
	}
}
