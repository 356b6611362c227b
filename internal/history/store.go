// Package history persists completed dictations in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/whisperclip/whisperclip/internal/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS dictations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at REAL NOT NULL,
	model TEXT NOT NULL,
	text TEXT NOT NULL,
	seconds REAL NOT NULL,
	corrected INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_dictations_recorded_at ON dictations(recorded_at DESC);
`

// Entry is one stored dictation row.
type Entry struct {
	ID         int64
	RecordedAt time.Time
	Model      string
	Text       string
	Seconds    float64
	Corrected  bool
}

// Store provides read-write access to the dictation history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path with WAL.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one dictation row.
func (s *Store) Record(ctx context.Context, rec session.DictationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dictations (recorded_at, model, text, seconds, corrected)
		VALUES (?, ?, ?, ?, ?)
	`, unixSeconds(time.Now()), rec.Model, rec.Text, rec.Seconds, rec.Corrected)
	if err != nil {
		return fmt.Errorf("insert dictation: %w", err)
	}
	return nil
}

// Recent returns the n most recent dictations, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recorded_at, model, text, seconds, corrected
		FROM dictations
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query dictations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var recordedAt float64
		if err := rows.Scan(&e.ID, &recordedAt, &e.Model, &e.Text, &e.Seconds, &e.Corrected); err != nil {
			return nil, fmt.Errorf("scan dictation: %w", err)
		}
		e.RecordedAt = timeFromUnix(recordedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000.0
}

func timeFromUnix(seconds float64) time.Time {
	sec, frac := math.Modf(seconds)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}
