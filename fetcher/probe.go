package fetcher

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	tls2 "github.com/refraction-networking/utls"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// headerProbe performs a plain HTTP request with a Chrome TLS fingerprint
// (utls) to capture the main document's response headers and redirect chain,
// which the browser protocol does not expose cheaply.
type headerProbe struct {
	defaultProxy string
	timeout      time.Duration
}

// probeResult holds whatever the probe observed about the main document.
type probeResult struct {
	statusCode int
	headers    http.Header
	redirects  int
}

func newHeaderProbe(defaultProxy string, timeout time.Duration) *headerProbe {
	return &headerProbe{defaultProxy: defaultProxy, timeout: timeout}
}

// fetch requests the URL, following up to 10 redirects, and returns the
// final response's status, headers, and the redirect count. The body is
// discarded; the rendered HTML comes from the browser.
func (hp *headerProbe) fetch(ctx context.Context, targetURL string) (*probeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, hp.timeout)
	defer cancel()

	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSChrome(ctx, network, addr)
		},
	}
	if hp.defaultProxy != "" {
		proxyURL, err := url.Parse(hp.defaultProxy)
		if err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	redirects := 0
	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			redirects = len(via)
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("probe: build request: %w", err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe: request failed: %w", err)
	}
	defer resp.Body.Close()

	// Drain a bounded amount so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 256*1024))

	return &probeResult{
		statusCode: resp.StatusCode,
		headers:    resp.Header.Clone(),
		redirects:  redirects,
	}, nil
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint via
// utls, so header-probe results match what the site serves real browsers.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{
		ServerName: host,
	}, tls2.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
