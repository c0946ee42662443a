package fetcher

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/models"
)

// Options carries per-request fetch parameters.
type Options struct {
	URL          string
	Timeout      time.Duration
	Stealth      bool
	SetupScripts []string
}

// PageFetcher is the substitution seam for the browser collaborator.
// Handlers and tests depend on this interface, not on the Rod-backed
// implementation.
type PageFetcher interface {
	Fetch(ctx context.Context, opts Options) (*models.PageSnapshot, error)
}

// Fetcher manages the global browser lifecycle and the page pool.
// It is safe for concurrent use; each Fetch owns exactly one page for the
// duration of the call and returns it to the pool on every exit path.
type Fetcher struct {
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	browserCfg  config.BrowserConfig
	fetchCfg    config.FetchConfig
	probe       *headerProbe
	activePages atomic.Int32
}

// New launches a headless browser and initialises the reusable page pool.
// A launch or connect failure is fatal: without a browser no assessment can
// run, so the caller should exit.
func New(browserCfg config.BrowserConfig, fetchCfg config.FetchConfig) (*Fetcher, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewAssessError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewAssessError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	pool := rod.NewPagePool(browserCfg.MaxPages)
	slog.Info("page pool created", "maxPages", browserCfg.MaxPages)

	return &Fetcher{
		browser:    browser,
		pagePool:   pool,
		browserCfg: browserCfg,
		fetchCfg:   fetchCfg,
		probe:      newHeaderProbe(browserCfg.DefaultProxy, fetchCfg.ProbeTimeout),
	}, nil
}

// Stats returns a snapshot of the pool's current state.
func (f *Fetcher) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    f.browserCfg.MaxPages,
		ActivePages: int(f.activePages.Load()),
	}
}

// Close drains the page pool and kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (f *Fetcher) Close() {
	slog.Info("fetcher shutting down: draining page pool")
	f.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	slog.Info("fetcher shutting down: closing browser")
	f.browser.MustClose()
	slog.Info("fetcher shutdown complete")
}
