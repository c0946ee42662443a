package facts

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/sitegrade/models"
)

// outdatedJSPatterns flags script URLs referencing known end-of-life
// library versions.
var outdatedJSPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)jquery[.-](1|2)\.\d+(\.\d+)?(\.min)?\.js`),
	regexp.MustCompile(`(?i)angular(js)?[.-]1\.\d+(\.\d+)?(\.min)?\.js`),
}

// securityFacts covers transport, response headers, and subresource hygiene.
// Header-derived fields are only meaningful when HeadersKnown is true; the
// probe may have failed even though the browser fetch succeeded.
func securityFacts(snap *models.PageSnapshot, doc *goquery.Document) models.SecurityFacts {
	f := models.SecurityFacts{
		HTTPS: strings.HasPrefix(strings.ToLower(snap.FinalURL), "https://"),
	}

	if snap.Headers != nil {
		f.HeadersKnown = true
		f.HasCSP = snap.Headers.Get("Content-Security-Policy") != ""
		f.HasHSTS = snap.Headers.Get("Strict-Transport-Security") != ""
		f.HasReferrerPolicy = snap.Headers.Get("Referrer-Policy") != ""
		f.HasPermissionsPolicy = snap.Headers.Get("Permissions-Policy") != ""

		xfo := strings.ToUpper(snap.Headers.Get("X-Frame-Options"))
		f.HasXFrameOptions = xfo == "DENY" || xfo == "SAMEORIGIN"
		f.HasXContentTypeNosniff = strings.EqualFold(
			snap.Headers.Get("X-Content-Type-Options"), "nosniff")
		f.CORSWildcard = snap.Headers.Get("Access-Control-Allow-Origin") == "*"

		for _, cookie := range snap.Headers.Values("Set-Cookie") {
			f.CookieCount++
			if strings.Contains(cookie, "Secure") && strings.Contains(cookie, "HttpOnly") {
				f.SecureCookieCount++
			}
		}
	}

	// SRI coverage across external scripts and stylesheets.
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		f.ExternalAssetCount++
		if s.AttrOr("integrity", "") != "" {
			f.SRICoveredCount++
		}
		src := s.AttrOr("src", "")
		for _, re := range outdatedJSPatterns {
			if re.MatchString(src) {
				f.OutdatedJSDetected = true
			}
		}
		if f.HTTPS && strings.HasPrefix(src, "http://") {
			f.MixedContentCount++
		}
	})
	doc.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		if !isStylesheetRel(s.AttrOr("rel", "")) {
			return
		}
		f.ExternalAssetCount++
		if s.AttrOr("integrity", "") != "" {
			f.SRICoveredCount++
		}
		if f.HTTPS && strings.HasPrefix(s.AttrOr("href", ""), "http://") {
			f.MixedContentCount++
		}
	})

	if f.HTTPS {
		doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
			if strings.HasPrefix(s.AttrOr("src", ""), "http://") {
				f.MixedContentCount++
			}
		})
	}

	return f
}

// isStylesheetRel reports whether a link rel attribute declares a stylesheet.
func isStylesheetRel(rel string) bool {
	for _, token := range strings.Fields(strings.ToLower(rel)) {
		if token == "stylesheet" {
			return true
		}
	}
	return false
}
