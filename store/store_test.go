package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/use-agent/sitegrade/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testReport(id string, score *float64, at time.Time) *models.AssessmentReport {
	return &models.AssessmentReport{
		ID:           id,
		URL:          "https://example.com/" + id,
		OverallScore: score,
		Summary:      "summary for " + id,
		GeneratedAt:  at,
	}
}

func TestStore_InsertAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	score := 81.25
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := s.Insert(ctx, testReport("r1", &score, at), "/tmp/r1.pdf"); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rec, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.URL != "https://example.com/r1" {
		t.Errorf("url = %q", rec.URL)
	}
	if rec.OverallScore == nil || *rec.OverallScore != 81.25 {
		t.Errorf("score = %v, want 81.25", rec.OverallScore)
	}
	if rec.PDFPath != "/tmp/r1.pdf" {
		t.Errorf("pdf path = %q", rec.PDFPath)
	}
	if !rec.CreatedAt.Equal(at) {
		t.Errorf("created at = %v, want %v", rec.CreatedAt, at)
	}
}

func TestStore_NilScoreRoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Insert(ctx, testReport("r1", nil, time.Now().UTC()), "/tmp/r1.pdf"); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rec, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.OverallScore != nil {
		t.Errorf("score = %v, want nil", *rec.OverallScore)
	}
}

func TestStore_GetUnknownID(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		r := testReport(fmt.Sprintf("r%d", i), nil, base.Add(time.Duration(i)*time.Minute))
		if err := s.Insert(ctx, r, "/tmp/x.pdf"); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	records, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if records[0].ID != "r2" || records[2].ID != "r0" {
		t.Errorf("order = %s, %s, %s, want newest first",
			records[0].ID, records[1].ID, records[2].ID)
	}
}

func TestStore_ListLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		r := testReport(fmt.Sprintf("r%d", i), nil, base.Add(time.Duration(i)*time.Second))
		if err := s.Insert(ctx, r, "/tmp/x.pdf"); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	records, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("records = %d, want 2", len(records))
	}
}

func TestStore_ListEmpty(t *testing.T) {
	s := openTestStore(t)

	records, err := s.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("records = %v, want empty non-nil slice", records)
	}
}
