// Package history keeps a SQLite ledger of scrape and publish phase runs.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a run has no recorded phases.
var ErrNotFound = errors.New("run not found")

// Entry is one phase of one run.
type Entry struct {
	RunID      uuid.UUID `json:"run_id"`
	Phase      string    `json:"phase"`
	Status     string    `json:"status"`
	ErrorKind  string    `json:"error_kind"`
	Error      *string   `json:"error,omitempty"`
	Links      int       `json:"links"`
	Records    int       `json:"records"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the phase ran.
func (e Entry) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}

// Store manages run history using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new history store with the given database path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the runs table if it doesn't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT NOT NULL,
		phase TEXT NOT NULL,
		status TEXT NOT NULL,
		error_kind TEXT NOT NULL,
		error TEXT,
		links INTEGER DEFAULT 0,
		records INTEGER DEFAULT 0,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		PRIMARY KEY (run_id, phase)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a phase entry, replacing any earlier entry for the same run
// and phase.
func (s *Store) Record(entry Entry) error {
	query := `
		INSERT OR REPLACE INTO runs (
			run_id, phase, status, error_kind, error,
			links, records, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		entry.RunID.String(), entry.Phase, entry.Status, entry.ErrorKind, entry.Error,
		entry.Links, entry.Records,
		formatTime(entry.StartedAt), formatTime(entry.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// List returns the most recent entries first. A limit of zero or less
// returns everything.
func (s *Store) List(limit int) ([]Entry, error) {
	query := `
		SELECT run_id, phase, status, error_kind, error,
		       links, records, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, rowid DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	return s.query(query)
}

// Run returns every phase recorded for runID, oldest first.
func (s *Store) Run(runID uuid.UUID) ([]Entry, error) {
	query := `
		SELECT run_id, phase, status, error_kind, error,
		       links, records, started_at, finished_at
		FROM runs
		WHERE run_id = ?
		ORDER BY started_at ASC, rowid ASC
	`

	entries, err := s.query(query, runID.String())
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}

	return entries, nil
}

func (s *Store) query(query string, args ...any) ([]Entry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var runIDStr, startedAtStr, finishedAtStr string
		var errText sql.NullString
		var entry Entry

		err := rows.Scan(
			&runIDStr, &entry.Phase, &entry.Status, &entry.ErrorKind, &errText,
			&entry.Links, &entry.Records, &startedAtStr, &finishedAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		entry.RunID, err = uuid.Parse(runIDStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run ID: %w", err)
		}
		if errText.Valid {
			entry.Error = &errText.String
		}
		entry.StartedAt = parseTime(startedAtStr)
		entry.FinishedAt = parseTime(finishedAtStr)

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	return entries, nil
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Helper functions for time formatting
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	// Try RFC3339Nano first, fall back to RFC3339 for compatibility
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}
