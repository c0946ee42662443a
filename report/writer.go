package report

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/use-agent/sitegrade/models"
)

// Writer persists rendered reports under a designated directory.
type Writer struct {
	outputDir string
}

// NewWriter creates the output directory if needed and returns a Writer.
func NewWriter(outputDir string) (*Writer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, models.NewAssessError(
			models.ErrCodeReportFailed,
			"failed to create report output directory",
			err,
		)
	}
	return &Writer{outputDir: outputDir}, nil
}

// Write stores the PDF and returns its path. The filename is derived
// deterministically from the target URL and timestamp, so concurrent
// assessments of different URLs (or re-assessments at different times)
// never collide.
func (w *Writer) Write(r *models.AssessmentReport, pdf []byte) (string, error) {
	path := filepath.Join(w.outputDir, Filename(r))
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return "", models.NewAssessError(
			models.ErrCodeReportFailed,
			"failed to write report file",
			err,
		)
	}
	return path, nil
}

// Filename derives the report filename from the target URL's host, a URL
// hash prefix, and the generation timestamp.
func Filename(r *models.AssessmentReport) string {
	host := "site"
	if u, err := url.Parse(r.URL); err == nil && u.Hostname() != "" {
		host = sanitizeHost(u.Hostname())
	}
	sum := sha256.Sum256([]byte(r.URL))
	return fmt.Sprintf("%s_%s_%s.pdf",
		host,
		hex.EncodeToString(sum[:4]),
		r.GeneratedAt.UTC().Format("20060102T150405Z"),
	)
}

// sanitizeHost keeps the filename portable across filesystems.
func sanitizeHost(host string) string {
	var b strings.Builder
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
