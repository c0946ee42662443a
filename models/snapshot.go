package models

import "net/http"

// PageSnapshot is everything the fetcher captured for one request.
// It is owned by the pipeline invocation and discarded after fact extraction.
type PageSnapshot struct {
	// URL is the requested target; FinalURL is the address after redirects.
	URL      string
	FinalURL string

	// HTML is the fully rendered document, after client-side script execution.
	HTML string

	// Title is the JS-evaluated document.title.
	Title string

	// StatusCode is the HTTP status of the main document response.
	StatusCode int

	// Headers holds the main document's response headers, captured by the
	// plain-HTTP probe. Nil when the probe failed; header-derived facts then
	// degrade to absent rather than failing the request.
	Headers http.Header

	// RedirectCount is the length of the redirect chain observed by the
	// probe. -1 when unknown.
	RedirectCount int

	// Timing holds coarse load metrics from the browser's navigation entry.
	Timing PageTiming

	// ConsoleErrors and FailedRequests are diagnostics captured while the
	// page loaded.
	ConsoleErrors  []string
	FailedRequests []string
}

// PageTiming holds millisecond load metrics. Zero values mean "not captured".
type PageTiming struct {
	TTFBMs float64 `json:"ttfb_ms"`
	LoadMs float64 `json:"load_ms"`
}
