// Package facts reduces a PageSnapshot into the structured signals the
// dimension analyzers embed in their prompts. Extraction is pure and total:
// no I/O, and malformed or empty HTML degrades to zeroed fields instead of
// returning an error.
package facts

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/sitegrade/models"
)

// Extract derives PageFacts from a snapshot. The HTML document is parsed
// once and shared across the per-dimension extractors.
func Extract(snap *models.PageSnapshot) models.PageFacts {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
	if err != nil {
		// goquery's parser is extremely lenient; this only trips on reader
		// failures. Degrade to an empty document so every field zeroes out.
		doc, _ = goquery.NewDocumentFromReader(strings.NewReader(""))
	}

	return models.PageFacts{
		Performance: performanceFacts(snap, doc),
		Security:    securityFacts(snap, doc),
		Technical:   technicalFacts(snap, doc),
		UX:          uxFacts(snap, doc),
	}
}
