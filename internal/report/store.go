// Package report persists per-recording analysis results in SQLite so a
// recording only has to be analyzed once.
package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no report exists for the requested file.
var ErrNotFound = errors.New("report not found")

// Report is one analysis result for a recorded file.
type Report struct {
	ID            int64
	File          string
	Duration      time.Duration
	Key           string
	KeyConfidence float64
	TempoBPM      float64
	BeatCount     int
	CreatedAt     time.Time
}

// Store manages analysis reports in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the report database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection keeps in-memory databases consistent and is plenty
	// for a local tool
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file TEXT NOT NULL UNIQUE,
			duration_ms INTEGER NOT NULL,
			key TEXT NOT NULL,
			key_confidence REAL NOT NULL,
			tempo_bpm REAL NOT NULL,
			beat_count INTEGER NOT NULL,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);

		CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save inserts or replaces the report for a file and returns its id. A file
// re-analyzed later simply overwrites its previous report.
func (s *Store) Save(ctx context.Context, r Report) (int64, error) {
	query := `
		INSERT INTO reports (file, duration_ms, key, key_confidence, tempo_bpm, beat_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(file) DO UPDATE SET
			duration_ms = excluded.duration_ms,
			key = excluded.key,
			key_confidence = excluded.key_confidence,
			tempo_bpm = excluded.tempo_bpm,
			beat_count = excluded.beat_count,
			created_at = excluded.created_at
	`

	result, err := s.db.ExecContext(ctx, query,
		r.File,
		r.Duration.Milliseconds(),
		r.Key,
		r.KeyConfidence,
		r.TempoBPM,
		r.BeatCount,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}

	return id, nil
}

// Get retrieves the report for a file, or ErrNotFound.
func (s *Store) Get(ctx context.Context, file string) (*Report, error) {
	query := `
		SELECT id, file, duration_ms, key, key_confidence, tempo_bpm, beat_count, created_at
		FROM reports
		WHERE file = ?
	`

	r, err := scanReport(s.db.QueryRowContext(ctx, query, file))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return r, nil
}

// List retrieves all reports, newest first.
func (s *Store) List(ctx context.Context) ([]Report, error) {
	query := `
		SELECT id, file, duration_ms, key, key_confidence, tempo_bpm, beat_count, created_at
		FROM reports
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return reports, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*Report, error) {
	var r Report
	var durationMS int64
	var createdUnix int64

	err := row.Scan(
		&r.ID,
		&r.File,
		&durationMS,
		&r.Key,
		&r.KeyConfidence,
		&r.TempoBPM,
		&r.BeatCount,
		&createdUnix,
	)
	if err != nil {
		return nil, err
	}

	r.Duration = time.Duration(durationMS) * time.Millisecond
	r.CreatedAt = time.Unix(createdUnix, 0)
	return &r, nil
}
