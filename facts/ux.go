package facts

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/sitegrade/models"
)

// maxTitleLength is the conventional SEO/UX ceiling for <title> text.
const maxTitleLength = 60

var (
	inlineColorRe = regexp.MustCompile(`(?i)(^|;)\s*color\s*:`)
	inlineBgRe    = regexp.MustCompile(`(?i)background(-color)?\s*:`)
)

// uxFacts covers accessibility and presentation heuristics.
func uxFacts(snap *models.PageSnapshot, doc *goquery.Document) models.UXFacts {
	f := models.UXFacts{}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = snap.Title
	}
	f.TitleLength = len(title)
	f.TitleTooLong = len(title) > maxTitleLength

	f.MetaDescription = strings.TrimSpace(
		doc.Find(`meta[name="description"]`).AttrOr("content", "")) != ""
	f.HasViewportMeta = doc.Find(`meta[name="viewport"]`).Length() > 0
	f.HasLangAttr = strings.TrimSpace(doc.Find("html").AttrOr("lang", "")) != ""
	f.HasLandmarks = doc.Find("header, main, footer, nav").Length() > 0

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		f.ImageCount++
		if strings.TrimSpace(s.AttrOr("alt", "")) == "" {
			f.ImagesWithoutAlt++
		}
	})
	f.AltCoverage = 1.0
	if f.ImageCount > 0 {
		f.AltCoverage = float64(f.ImageCount-f.ImagesWithoutAlt) / float64(f.ImageCount)
	}

	// Inputs inside forms without an associated label, either via for=id
	// or by nesting inside a <label>.
	doc.Find("form input").Each(func(_ int, s *goquery.Selection) {
		switch s.AttrOr("type", "") {
		case "hidden", "submit", "button":
			return
		}
		if id := s.AttrOr("id", ""); id != "" {
			if doc.Find(`label[for="` + id + `"]`).Length() > 0 {
				return
			}
		}
		if s.ParentsFiltered("label").Length() > 0 {
			return
		}
		f.UnlabeledInputs++
	})

	// Heading levels that skip more than one step down (h1 → h3).
	lastLevel := 0
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		level, err := strconv.Atoi(strings.TrimPrefix(goquery.NodeName(s), "h"))
		if err != nil {
			return
		}
		if lastLevel != 0 && level > lastLevel+1 {
			f.HeadingViolations++
		}
		lastLevel = level
	})

	// Inline styles declaring both a color and a background are contrast
	// suspects; a real contrast check needs computed styles.
	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style := s.AttrOr("style", "")
		if inlineColorRe.MatchString(style) && inlineBgRe.MatchString(style) {
			f.InlineContrastRisk++
		}
	})

	return f
}
