package facts

import (
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/sitegrade/models"
)

// performanceFacts covers page weight and load-timing signals.
func performanceFacts(snap *models.PageSnapshot, doc *goquery.Document) models.PerformanceFacts {
	f := models.PerformanceFacts{
		PageSizeBytes:      len(snap.HTML),
		TTFBMs:             snap.Timing.TTFBMs,
		LoadMs:             snap.Timing.LoadMs,
		FailedRequestCount: len(snap.FailedRequests),
	}

	// Estimated decoded image weight: width * height * 3 bytes per pixel
	// for every <img> declaring dimensions.
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		w, _ := strconv.Atoi(s.AttrOr("width", "0"))
		h, _ := strconv.Atoi(s.AttrOr("height", "0"))
		if w > 0 && h > 0 {
			f.EstimatedImageBytes += w * h * 3
		}
	})

	f.ScriptCount = doc.Find("script[src]").Length()
	f.InlineScriptCount = doc.Find("script:not([src])").Length()

	doc.Find("link[rel]").Each(func(_ int, s *goquery.Selection) {
		if isStylesheetRel(s.AttrOr("rel", "")) {
			f.StylesheetCount++
		}
	})

	// Parser-blocking scripts in <head>: external, no async/defer/module.
	doc.Find("head script[src]").Each(func(_ int, s *goquery.Selection) {
		if _, async := s.Attr("async"); async {
			return
		}
		if _, deferred := s.Attr("defer"); deferred {
			return
		}
		if s.AttrOr("type", "") == "module" {
			return
		}
		f.BlockingScriptsInHead++
	})

	return f
}
