package models

// AssessRequest is the payload for POST /api/v1/assess.
type AssessRequest struct {
	// URL is the target page to assess. Required, absolute.
	URL string `json:"url" binding:"required,url"`

	// Dimensions selects which quality dimensions to analyze.
	// Default: all four (performance, security, technical, ux).
	Dimensions []string `json:"dimensions,omitempty" binding:"omitempty,dive,oneof=performance security technical ux"`

	// Timeout is the maximum duration in seconds for the fetch phase
	// (navigation + rendering). Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// Stealth enables anti-bot-detection evasions during fetching.
	Stealth bool `json:"stealth,omitempty"`

	// SetupScripts are JavaScript snippets evaluated on the page after load
	// and before capture (e.g. dismissing a consent dialog).
	SetupScripts []string `json:"setup_scripts,omitempty"`

	// CSSSelector optionally scopes the content excerpt sent to the model
	// to the matched elements' outer HTML.
	CSSSelector string `json:"css_selector,omitempty"`

	// MaxAge enables cached responses no older than this many milliseconds.
	// 0 (default) bypasses the cache.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *AssessRequest) Defaults() {
	if len(r.Dimensions) == 0 {
		r.Dimensions = make([]string, 0, len(CanonicalDimensions))
		for _, d := range CanonicalDimensions {
			r.Dimensions = append(r.Dimensions, string(d))
		}
	}
	if r.Timeout == 0 {
		r.Timeout = 30
	}
}

// RequestedDimensions returns the selected dimensions in canonical order,
// deduplicated. Unknown names are dropped (binding validation rejects them
// before this runs; the filter is for non-HTTP callers).
func (r *AssessRequest) RequestedDimensions() []Dimension {
	selected := make(map[Dimension]bool, len(r.Dimensions))
	for _, raw := range r.Dimensions {
		d := Dimension(raw)
		if d.Valid() {
			selected[d] = true
		}
	}

	dims := make([]Dimension, 0, len(selected))
	for _, d := range CanonicalDimensions {
		if selected[d] {
			dims = append(dims, d)
		}
	}
	return dims
}
