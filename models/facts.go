package models

// PageFacts holds the structured signals derived deterministically from a
// PageSnapshot. Each sub-struct feeds exactly one dimension's prompt.
// Extraction never fails: malformed or empty HTML yields zeroed fields.
type PageFacts struct {
	Performance PerformanceFacts `json:"performance"`
	Security    SecurityFacts    `json:"security"`
	Technical   TechnicalFacts   `json:"technical"`
	UX          UXFacts          `json:"ux"`
}

// PerformanceFacts covers page weight and load timing.
type PerformanceFacts struct {
	PageSizeBytes        int     `json:"page_size_bytes"`
	EstimatedImageBytes  int     `json:"estimated_image_weight_bytes"`
	ScriptCount          int     `json:"num_js_files"`
	StylesheetCount      int     `json:"num_css_files"`
	InlineScriptCount    int     `json:"num_inline_scripts"`
	TTFBMs               float64 `json:"ttfb_ms"`
	LoadMs               float64 `json:"load_ms"`
	FailedRequestCount   int     `json:"failed_request_count"`
	BlockingScriptsInHead int    `json:"blocking_scripts_in_head"`
}

// SecurityFacts covers transport, response headers, and subresource hygiene.
type SecurityFacts struct {
	HTTPS                bool `json:"https"`
	HasCSP               bool `json:"content_security_policy"`
	HasHSTS              bool `json:"strict_transport_security"`
	HasXFrameOptions     bool `json:"x_frame_options"`
	HasXContentTypeNosniff bool `json:"x_content_type_options_nosniff"`
	HasReferrerPolicy    bool `json:"referrer_policy"`
	HasPermissionsPolicy bool `json:"permissions_policy"`
	HeadersKnown         bool `json:"headers_known"`

	CookieCount       int `json:"cookie_count"`
	SecureCookieCount int `json:"secure_cookie_count"`

	SRICoveredCount   int  `json:"sri_covered_count"`
	ExternalAssetCount int `json:"external_asset_count"`
	OutdatedJSDetected bool `json:"outdated_js_detected"`
	CORSWildcard       bool `json:"cors_wildcard"`
	MixedContentCount  int  `json:"mixed_content_count"`
}

// TechnicalFacts covers structural and crawlability signals.
type TechnicalFacts struct {
	RedirectChainLength int      `json:"redirect_chain_length"` // -1 when unknown
	TotalLinks          int      `json:"total_links"`
	EmptyAnchorLinks    int      `json:"links_without_text"`
	MissingMetaTags     []string `json:"missing_meta_tags"`
	HasCanonical        bool     `json:"has_canonical"`
	HasDoctype          bool     `json:"has_doctype"`
	ConsoleErrorCount   int      `json:"console_error_count"`
	FailedRequestCount  int      `json:"failed_request_count"`
	StatusCode          int      `json:"status_code"`
}

// UXFacts covers accessibility and presentation heuristics.
type UXFacts struct {
	TitleLength        int     `json:"title_length"`
	TitleTooLong       bool    `json:"title_too_long"`
	MetaDescription    bool    `json:"has_meta_description"`
	ImageCount         int     `json:"image_count"`
	ImagesWithoutAlt   int     `json:"images_without_alt"`
	AltCoverage        float64 `json:"alt_coverage"` // 0-1; 1 when no images
	UnlabeledInputs    int     `json:"forms_missing_labels"`
	HeadingViolations  int     `json:"heading_structure_violations"`
	HasLandmarks       bool    `json:"has_semantic_landmarks"`
	HasLangAttr        bool    `json:"has_html_lang"`
	HasViewportMeta    bool    `json:"has_viewport_meta"`
	InlineContrastRisk int     `json:"low_contrast_inline_styles"`
}
