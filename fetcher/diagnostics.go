package fetcher

import (
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// maxDiagnostics caps each captured diagnostics list so a pathological page
// cannot balloon the snapshot.
const maxDiagnostics = 50

// diagnostics accumulates console errors and failed network requests
// observed while a page loads. Safe for concurrent use: the event listener
// goroutine writes while Fetch reads at the end.
type diagnostics struct {
	mu             sync.Mutex
	consoleErrors  []string
	failedRequests []string
	requestURLs    map[proto.NetworkRequestID]string
}

// watchDiagnostics registers CDP listeners on the page. It must run before
// Navigate, or events fired during the initial load are lost. The listener
// goroutine exits when the page context is done.
func watchDiagnostics(p *rod.Page) *diagnostics {
	d := &diagnostics{requestURLs: make(map[proto.NetworkRequestID]string)}

	wait := p.EachEvent(
		func(e *proto.RuntimeConsoleAPICalled) {
			if e.Type != proto.RuntimeConsoleAPICalledTypeError {
				return
			}
			parts := make([]string, 0, len(e.Args))
			for _, arg := range e.Args {
				if arg.Value.Val() != nil {
					parts = append(parts, arg.Value.String())
				} else if arg.Description != "" {
					parts = append(parts, arg.Description)
				}
			}
			d.addConsoleError(strings.Join(parts, " "))
		},
		func(e *proto.NetworkRequestWillBeSent) {
			d.mu.Lock()
			if len(d.requestURLs) < 4*maxDiagnostics {
				d.requestURLs[e.RequestID] = e.Request.URL
			}
			d.mu.Unlock()
		},
		func(e *proto.NetworkLoadingFailed) {
			if e.Canceled {
				return
			}
			d.mu.Lock()
			url := d.requestURLs[e.RequestID]
			d.mu.Unlock()
			d.addFailedRequest(strings.TrimSpace(url + " " + e.ErrorText))
		},
	)
	go wait()

	return d
}

func (d *diagnostics) addConsoleError(msg string) {
	if msg == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.consoleErrors) < maxDiagnostics {
		d.consoleErrors = append(d.consoleErrors, msg)
	}
}

func (d *diagnostics) addFailedRequest(msg string) {
	if msg == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.failedRequests) < maxDiagnostics {
		d.failedRequests = append(d.failedRequests, msg)
	}
}

// snapshot returns copies of the captured diagnostics.
func (d *diagnostics) snapshot() (consoleErrors, failedRequests []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	consoleErrors = append([]string(nil), d.consoleErrors...)
	failedRequests = append([]string(nil), d.failedRequests...)
	return consoleErrors, failedRequests
}
