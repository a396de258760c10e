// Package storage archives analytics runs and their emitted results in SQLite.
//
// Each run is identified by its run ID. Results are buffered and written in
// batches inside a transaction; FinishRun, Close and GetResults force
// pending rows to disk first. Use ":memory:" for an in-process database.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rewired-gh/donation-analytics/internal/models"
	_ "modernc.org/sqlite"
)

// batchSize is the number of buffered results written per transaction
const batchSize = 500

// ErrRunNotFound is returned when a run ID has no archived record
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	percentile  REAL NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER,
	lines       INTEGER NOT NULL DEFAULT 0,
	emitted     INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS results (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	line_no    INTEGER NOT NULL,
	recipient  TEXT NOT NULL,
	zone       TEXT NOT NULL,
	year       INTEGER NOT NULL,
	percentile REAL NOT NULL,
	total      REAL NOT NULL,
	count      INTEGER NOT NULL,
	PRIMARY KEY (run_id, line_no)
);
CREATE INDEX IF NOT EXISTS idx_results_group ON results(recipient, zone, year);
`

// Run is the archived summary of one analytics run
type Run struct {
	ID         string
	Percentile float64
	StartedAt  time.Time
	FinishedAt time.Time
	Lines      int
	Emitted    int
	Skipped    int
}

// RunSummary carries the counters recorded when a run finishes
type RunSummary struct {
	Lines   int
	Emitted int
	Skipped int
}

type pendingResult struct {
	runID  string
	lineNo int
	result models.Result
}

// Storage is a SQLite-backed result archive. It is safe for concurrent use.
type Storage struct {
	db      *sql.DB
	mu      sync.Mutex
	pending []pendingResult
}

// New opens (or creates) the archive at dbPath
func New(dbPath string) (*Storage, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Storage{db: db, pending: make([]pendingResult, 0, batchSize)}, nil
}

// BeginRun records the start of a run
func (s *Storage) BeginRun(runID string, percentile float64, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO runs (id, percentile, started_at) VALUES (?, ?, ?)`,
		runID, percentile, startedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", runID, err)
	}
	return nil
}

// AddResult buffers an emitted result for the run
func (s *Storage) AddResult(runID string, lineNo int, result *models.Result) error {
	if err := result.Validate(); err != nil {
		return fmt.Errorf("invalid result: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append(s.pending, pendingResult{runID: runID, lineNo: lineNo, result: *result})
	if len(s.pending) >= batchSize {
		return s.flushLocked()
	}
	return nil
}

func (s *Storage) flushLocked() error {
	if len(s.pending) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO results
		(run_id, line_no, recipient, zone, year, percentile, total, count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range s.pending {
		r := p.result
		if _, err := stmt.Exec(p.runID, p.lineNo, r.Key.Recipient, r.Key.Zone, r.Key.Year,
			r.Percentile, r.Total, r.Count); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert result for line %d: %w", p.lineNo, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit results: %w", err)
	}
	s.pending = s.pending[:0]
	return nil
}

// FinishRun flushes pending results and records the run counters
func (s *Storage) FinishRun(runID string, summary RunSummary, finishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flushLocked(); err != nil {
		return err
	}

	res, err := s.db.Exec(`UPDATE runs SET finished_at = ?, lines = ?, emitted = ?, skipped = ? WHERE id = ?`,
		finishedAt.UnixNano(), summary.Lines, summary.Emitted, summary.Skipped, runID)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *Storage) GetRun(runID string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT id, percentile, started_at, finished_at, lines, emitted, skipped
		FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run      Run
		started  int64
		finished sql.NullInt64
	)
	err := row.Scan(&run.ID, &run.Percentile, &started, &finished, &run.Lines, &run.Emitted, &run.Skipped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.StartedAt = time.Unix(0, started)
	if finished.Valid {
		run.FinishedAt = time.Unix(0, finished.Int64)
	}
	return &run, nil
}

// Runs returns all archived runs, oldest first
func (s *Storage) Runs() ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, percentile, started_at, finished_at, lines, emitted, skipped
		FROM runs ORDER BY started_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetResults returns the archived results of a run in input order
func (s *Storage) GetResults(runID string) ([]models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flushLocked(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT recipient, zone, year, percentile, total, count
		FROM results WHERE run_id = ? ORDER BY line_no`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []models.Result
	for rows.Next() {
		var r models.Result
		if err := rows.Scan(&r.Key.Recipient, &r.Key.Zone, &r.Key.Year, &r.Percentile, &r.Total, &r.Count); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close flushes pending results and closes the database
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	flushErr := s.flushLocked()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return flushErr
}
