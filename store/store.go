// Package store keeps the report index: one row per generated assessment,
// pointing at the rendered PDF on disk. Backed by SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/use-agent/sitegrade/models"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;

CREATE TABLE IF NOT EXISTS reports (
    id            TEXT PRIMARY KEY,
    url           TEXT NOT NULL,
    overall_score REAL,
    summary       TEXT NOT NULL DEFAULT '',
    pdf_path      TEXT NOT NULL,
    created_at    TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_url ON reports(url);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
`

// Store is the report index. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the index database at path and ensures
// the schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert records a generated report and its PDF location.
func (s *Store) Insert(ctx context.Context, r *models.AssessmentReport, pdfPath string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, url, overall_score, summary, pdf_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.URL, nullableScore(r.OverallScore), r.Summary, pdfPath,
		r.GeneratedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store: insert report: %w", err)
	}
	return nil
}

// Get returns one report record, or sql.ErrNoRows when the ID is unknown.
func (s *Store) Get(ctx context.Context, id string) (*models.ReportRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, overall_score, summary, pdf_path, created_at
		 FROM reports WHERE id = ?`, id)
	return scanRecord(row)
}

// List returns the most recent records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]models.ReportRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, overall_score, summary, pdf_path, created_at
		 FROM reports ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list reports: %w", err)
	}
	defer rows.Close()

	records := []models.ReportRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.ReportRecord, error) {
	var (
		rec       models.ReportRecord
		score     sql.NullFloat64
		createdAt string
	)
	if err := row.Scan(&rec.ID, &rec.URL, &score, &rec.Summary, &rec.PDFPath, &createdAt); err != nil {
		return nil, err
	}
	if score.Valid {
		rec.OverallScore = &score.Float64
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = t
	}
	return &rec, nil
}

func nullableScore(score *float64) any {
	if score == nil {
		return nil
	}
	return *score
}
