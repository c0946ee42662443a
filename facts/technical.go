package facts

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/sitegrade/models"
)

// requiredMetaTags are the meta names every page is expected to declare.
var requiredMetaTags = []string{"description", "robots", "viewport"}

// technicalFacts covers structural and crawlability signals.
func technicalFacts(snap *models.PageSnapshot, doc *goquery.Document) models.TechnicalFacts {
	f := models.TechnicalFacts{
		RedirectChainLength: snap.RedirectCount,
		StatusCode:          snap.StatusCode,
		ConsoleErrorCount:   len(snap.ConsoleErrors),
		FailedRequestCount:  len(snap.FailedRequests),
		MissingMetaTags:     []string{},
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		f.TotalLinks++
		if strings.TrimSpace(s.Text()) == "" && s.Find("img[alt]").Length() == 0 {
			f.EmptyAnchorLinks++
		}
	})

	present := make(map[string]bool, len(requiredMetaTags))
	doc.Find("meta[name]").Each(func(_ int, s *goquery.Selection) {
		present[strings.ToLower(s.AttrOr("name", ""))] = true
	})
	for _, name := range requiredMetaTags {
		if !present[name] {
			f.MissingMetaTags = append(f.MissingMetaTags, name)
		}
	}

	f.HasCanonical = doc.Find(`link[rel="canonical"]`).Length() > 0
	f.HasDoctype = strings.HasPrefix(
		strings.TrimSpace(strings.ToLower(snap.HTML)), "<!doctype")

	return f
}
