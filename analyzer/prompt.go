package analyzer

import (
	"encoding/json"
	"fmt"

	"github.com/use-agent/sitegrade/models"
)

// responseSchema is the structured output contract every dimension prompt
// demands from the model. parse.go is the other half of this contract.
const responseSchema = `Respond with ONLY a JSON object, no markdown fences or explanation:
{
  "score": <number 0-100, higher is better>,
  "summary": "<one or two sentences>",
  "findings": [
    {"text": "<short specific observation>", "severity": "critical|high|medium|low|info"}
  ]
}
List at most 8 findings, most severe first.`

// dimensionBriefs describe what each dimension's judgment should weigh.
var dimensionBriefs = map[models.Dimension]string{
	models.DimensionPerformance: `You are auditing the PERFORMANCE of a web page.
Weigh page weight, asset counts, parser-blocking scripts, time to first byte,
full load time, and failed subresource requests. Penalize heavy pages and
slow timings; reward lean pages with fast, complete loads.`,

	models.DimensionSecurity: `You are auditing the SECURITY posture of a web page.
Weigh HTTPS usage, security response headers (CSP, HSTS, X-Frame-Options,
X-Content-Type-Options, Referrer-Policy, Permissions-Policy), cookie flags,
subresource integrity coverage, outdated JavaScript libraries, CORS
configuration, and mixed content. When headers_known is false, note that
header checks were inconclusive instead of treating them as failures.`,

	models.DimensionTechnical: `You are auditing the TECHNICAL QUALITY of a web page.
Weigh HTTP status, redirect chain length, broken or empty links, missing
meta tags, canonical and doctype declarations, console errors, and failed
network requests. A redirect_chain_length of -1 means it could not be
measured.`,

	models.DimensionUX: `You are auditing the UX AND ACCESSIBILITY of a web page.
Weigh title and meta description quality, image alt-text coverage, form
label coverage, heading structure, semantic landmarks, the html lang
attribute, viewport configuration, and inline-style contrast suspects.`,
}

// buildPrompt assembles the dimension brief, the relevant extracted facts as
// JSON, and the bounded content excerpt into one completion prompt.
func buildPrompt(dim models.Dimension, facts models.PageFacts, pageURL, excerpt string) string {
	var factSection any
	switch dim {
	case models.DimensionPerformance:
		factSection = facts.Performance
	case models.DimensionSecurity:
		factSection = facts.Security
	case models.DimensionTechnical:
		factSection = facts.Technical
	case models.DimensionUX:
		factSection = facts.UX
	}

	factJSON, err := json.MarshalIndent(factSection, "", "  ")
	if err != nil {
		factJSON = []byte("{}")
	}

	return fmt.Sprintf(`%s

Target URL: %s

Measured facts:
%s

Page content (Markdown excerpt, may be truncated):
%s

%s`, dimensionBriefs[dim], pageURL, factJSON, excerpt, responseSchema)
}
