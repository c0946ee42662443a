// Package content produces the bounded page-content excerpt embedded in
// dimension prompts. Raw rendered HTML is far too large (and too noisy) for
// a completion call, so the pipeline is: optional CSS-selector scoping →
// readability main-content extraction → Markdown conversion → token-budget
// truncation.
package content

import (
	"bytes"
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// minContentLength is the minimum TextContent length (in characters) for
// readability output to be considered valid. Below this threshold we assume
// the algorithm failed to locate the main content and fall back to raw HTML.
const minContentLength = 50

// Builder converts rendered HTML into a Markdown excerpt bounded by a token
// budget. The Markdown converter is created once and reused across requests
// (goroutine-safe).
type Builder struct {
	mdConverter *converter.Converter
}

// NewBuilder initialises the Builder with a pre-configured Markdown converter:
//
//   - base plugin: strips script, style, iframe, noscript, head, meta, link —
//     all noise for LLM judgment.
//   - commonmark plugin: standard Markdown rendering.
//   - table plugin with minimal cell padding: preserves tabular structure
//     while saving tokens.
func NewBuilder() *Builder {
	return &Builder{
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
			),
		),
	}
}

// Excerpt runs the full excerpt pipeline. It never fails: every stage has a
// fallback, and the worst case is a truncated plain-text rendition of the
// raw HTML.
func (b *Builder) Excerpt(rawHTML, sourceURL, cssSelector string, maxTokens int) string {
	scoped := rawHTML
	if cssSelector != "" {
		if selected, err := applyCSSSelector(rawHTML, cssSelector); err == nil {
			scoped = selected
		} else {
			slog.Warn("excerpt: invalid CSS selector, using full document",
				"selector", cssSelector, "error", err,
			)
		}
	}

	article := extractArticle(scoped, sourceURL)

	markdown, err := b.mdConverter.ConvertString(
		article.Content, converter.WithDomain(sourceURL))
	if err != nil {
		slog.Warn("excerpt: markdown conversion failed, using plain text",
			"url", sourceURL, "error", err,
		)
		markdown = article.TextContent
	}

	return Truncate(strings.TrimSpace(markdown), maxTokens)
}

// extractArticle runs the Mozilla Readability algorithm with raw-HTML
// fallback on any failure or implausibly short result.
func extractArticle(rawHTML, sourceURL string) readability.Article {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		return fallbackArticle(rawHTML)
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Warn("excerpt: readability failed, falling back to raw HTML",
			"url", sourceURL, "error", err,
		)
		return fallbackArticle(rawHTML)
	}

	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		return fallbackArticle(rawHTML)
	}
	return article
}

// fallbackArticle wraps raw HTML into an Article so the pipeline can proceed
// uniformly regardless of whether readability succeeded.
func fallbackArticle(rawHTML string) readability.Article {
	return readability.Article{
		Content:     rawHTML,
		TextContent: rawHTML,
	}
}

// applyCSSSelector parses rawHTML, matches elements against the given CSS
// selector, and returns the concatenated outer HTML of all matched elements.
//
// If no elements match, the original rawHTML is returned unchanged so that
// downstream processing still has something to work with.
func applyCSSSelector(rawHTML, selector string) (string, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	matches := cascadia.QueryAll(doc, sel)
	if len(matches) == 0 {
		return rawHTML, nil
	}

	var buf bytes.Buffer
	for _, node := range matches {
		if err := html.Render(&buf, node); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
