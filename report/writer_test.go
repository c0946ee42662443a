package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/sitegrade/models"
)

func TestFilename_Deterministic(t *testing.T) {
	r := &models.AssessmentReport{
		URL:         "https://www.example.com/some/path?q=1",
		GeneratedAt: time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC),
	}

	name := Filename(r)
	if name != Filename(r) {
		t.Error("filename is not deterministic")
	}
	if !strings.HasPrefix(name, "www.example.com_") {
		t.Errorf("filename = %q, want host prefix", name)
	}
	if !strings.HasSuffix(name, "_20250601T123045Z.pdf") {
		t.Errorf("filename = %q, want timestamp suffix", name)
	}
}

func TestFilename_DistinctURLsDistinctNames(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := Filename(&models.AssessmentReport{URL: "https://example.com/a", GeneratedAt: at})
	b := Filename(&models.AssessmentReport{URL: "https://example.com/b", GeneratedAt: at})
	if a == b {
		t.Errorf("different URLs mapped to the same filename %q", a)
	}
}

func TestFilename_UnparseableURL(t *testing.T) {
	r := &models.AssessmentReport{
		URL:         "::not a url::",
		GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	name := Filename(r)
	if !strings.HasPrefix(name, "site_") {
		t.Errorf("filename = %q, want fallback host", name)
	}
}

func TestWriter_WriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	r := &models.AssessmentReport{
		URL:         "https://example.com",
		GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	content := []byte("%PDF-1.7 fake")

	path, err := w.Write(r, content)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("path = %q, want inside %q", path, dir)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if string(got) != string(content) {
		t.Error("written bytes differ from input")
	}
}

func TestNewWriter_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	if _, err := NewWriter(dir); err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("output directory was not created: %v", err)
	}
}
