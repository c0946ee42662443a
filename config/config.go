package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Fetch     FetchConfig
	LLM       LLMConfig
	Analyzer  AnalyzerConfig
	Report    ReportConfig
	Store     StoreConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 4

	// DefaultProxy is the default proxy URL for all requests.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// FetchConfig controls page-fetch behavior.
type FetchConfig struct {
	// DefaultTimeout is the per-request fetch timeout.
	DefaultTimeout time.Duration // default: 30s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 120s

	// ProbeTimeout is the deadline for the plain-HTTP header probe.
	ProbeTimeout time.Duration // default: 10s
}

// LLMConfig controls the external completion collaborator.
type LLMConfig struct {
	// APIKey authenticates against the completion API. Required; the
	// process refuses to start without it.
	APIKey string

	// Model is the completion model identifier.
	Model string // default: "gpt-4o-mini"

	// BaseURL is the OpenAI-compatible API root.
	BaseURL string // default: "https://api.openai.com/v1"

	// CallTimeout bounds each per-dimension completion call. A timeout
	// degrades that dimension instead of failing the request.
	CallTimeout time.Duration // default: 60s

	// MaxCompletionTokens caps the model's response length.
	MaxCompletionTokens int // default: 1024

	// MaxPromptTokens bounds the page-content excerpt embedded in prompts.
	MaxPromptTokens int // default: 6000
}

// AnalyzerConfig controls score aggregation.
type AnalyzerConfig struct {
	// Weights are the per-dimension aggregation weights, in canonical
	// order: performance, security, technical, ux. Default: equal.
	Weights map[string]float64
}

// ReportConfig controls rendered report output.
type ReportConfig struct {
	// OutputDir is the directory PDF reports are written to.
	OutputDir string // default: "./reports"
}

// StoreConfig controls the report index database.
type StoreConfig struct {
	// Path is the sqlite database file. default: "./reports/index.db"
	Path string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key.
	Burst int // default: 3
}

// CacheConfig controls the assessment response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 500
}

// WebhookConfig controls report-completion notifications.
type WebhookConfig struct {
	// URL receives a report.completed event per stored report. Empty
	// disables delivery.
	URL string

	// Secret signs the payload with HMAC-SHA256 when non-empty.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SITEGRADE_HOST", "0.0.0.0"),
			Port: envIntOr("SITEGRADE_PORT", 8080),
			Mode: envOr("SITEGRADE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("SITEGRADE_HEADLESS", true),
			MaxPages:     envIntOr("SITEGRADE_MAX_PAGES", 4),
			DefaultProxy: os.Getenv("SITEGRADE_PROXY"),
			NoSandbox:    envBoolOr("SITEGRADE_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("SITEGRADE_BROWSER_BIN"),
		},
		Fetch: FetchConfig{
			DefaultTimeout: envDurationOr("SITEGRADE_DEFAULT_TIMEOUT", 30*time.Second),
			MaxTimeout:     envDurationOr("SITEGRADE_MAX_TIMEOUT", 120*time.Second),
			ProbeTimeout:   envDurationOr("SITEGRADE_PROBE_TIMEOUT", 10*time.Second),
		},
		LLM: LLMConfig{
			APIKey:              os.Getenv("SITEGRADE_LLM_API_KEY"),
			Model:               envOr("SITEGRADE_LLM_MODEL", "gpt-4o-mini"),
			BaseURL:             envOr("SITEGRADE_LLM_BASE_URL", "https://api.openai.com/v1"),
			CallTimeout:         envDurationOr("SITEGRADE_LLM_TIMEOUT", 60*time.Second),
			MaxCompletionTokens: envIntOr("SITEGRADE_LLM_MAX_COMPLETION_TOKENS", 1024),
			MaxPromptTokens:     envIntOr("SITEGRADE_LLM_MAX_PROMPT_TOKENS", 6000),
		},
		Analyzer: AnalyzerConfig{
			Weights: envWeightsOr("SITEGRADE_WEIGHTS", map[string]float64{
				"performance": 1, "security": 1, "technical": 1, "ux": 1,
			}),
		},
		Report: ReportConfig{
			OutputDir: envOr("SITEGRADE_REPORT_DIR", "./reports"),
		},
		Store: StoreConfig{
			Path: envOr("SITEGRADE_DB_PATH", "./reports/index.db"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SITEGRADE_AUTH_ENABLED", false),
			APIKeys: envSliceOr("SITEGRADE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SITEGRADE_RATE_RPS", 1.0),
			Burst:             envIntOr("SITEGRADE_RATE_BURST", 3),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("SITEGRADE_CACHE_MAX_ENTRIES", 500),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("SITEGRADE_WEBHOOK_URL"),
			Secret: os.Getenv("SITEGRADE_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("SITEGRADE_LOG_LEVEL", "info"),
			Format: envOr("SITEGRADE_LOG_FORMAT", "json"),
		},
	}
}

// Validate checks the invariants that must hold before the process can
// serve traffic. The LLM credential is mandatory: without it every
// dimension analysis would fail, so the process refuses to start.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return errors.New("SITEGRADE_LLM_API_KEY is required")
	}
	if c.Report.OutputDir == "" {
		return errors.New("report output directory must not be empty")
	}
	for name, w := range c.Analyzer.Weights {
		if w < 0 {
			return errors.New("negative weight for dimension " + name)
		}
	}
	return nil
}

// envWeightsOr parses "performance=1,security=2,..." into a weight map.
// Unknown or malformed entries are ignored; missing dimensions keep the
// fallback's value.
func envWeightsOr(key string, fallback map[string]float64) map[string]float64 {
	weights := make(map[string]float64, len(fallback))
	for k, v := range fallback {
		weights[k] = v
	}
	v := os.Getenv(key)
	if v == "" {
		return weights
	}
	for _, part := range strings.Split(v, ",") {
		name, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		if _, known := weights[name]; !known {
			continue
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil && f >= 0 {
			weights[name] = f
		}
	}
	return weights
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
