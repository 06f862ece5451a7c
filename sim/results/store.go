package results

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nestsim/nestsim/sim"
)

// Store persists runs to a SQLite database so repeated simulations can be
// queried side by side. Rows are append-only: each run gets a fresh UUID.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	seed INTEGER NOT NULL,
	discipline TEXT NOT NULL,
	duration_days INTEGER NOT NULL,
	final_time REAL NOT NULL,
	events_processed INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	timestamp REAL NOT NULL,
	hen_id INTEGER NOT NULL,
	nest_id INTEGER NOT NULL,
	action TEXT NOT NULL CHECK(action IN ('entry','exit')),
	PRIMARY KEY(run_id, seq),
	FOREIGN KEY(run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS nest_metrics (
	run_id TEXT NOT NULL,
	nest_id INTEGER NOT NULL,
	total_occupancy_duration REAL NOT NULL,
	total_single_hen_duration REAL NOT NULL,
	PRIMARY KEY(run_id, nest_id),
	FOREIGN KEY(run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS co_occurrences (
	run_id TEXT NOT NULL,
	hen_a INTEGER NOT NULL,
	hen_b INTEGER NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY(run_id, hen_a, hen_b),
	FOREIGN KEY(run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);
`

// OpenStore opens (creating if needed) the SQLite database at path.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RunInfo describes the run being persisted.
type RunInfo struct {
	Name         string
	Seed         int64
	Discipline   string
	DurationDays int
}

// SaveRun writes a complete run (header, events, metrics, co-occurrences) in
// one transaction and returns its generated run id.
func (s *Store) SaveRun(ctx context.Context, info RunInfo, res *sim.Results) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO runs(run_id, name, seed, discipline, duration_days, final_time, events_processed, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, info.Name, info.Seed, info.Discipline, info.DurationDays,
		res.FinalTime, res.EventsProcessed, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	eventStmt, err := tx.PrepareContext(ctx, `
INSERT INTO events(run_id, seq, timestamp, hen_id, nest_id, action) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare events: %w", err)
	}
	defer eventStmt.Close()
	for i, entry := range res.Logs {
		if _, err := eventStmt.ExecContext(ctx, runID, i, entry.Timestamp, entry.HenID, entry.NestID, string(entry.Action)); err != nil {
			return "", fmt.Errorf("insert event %d: %w", i, err)
		}
	}

	for _, m := range res.Metrics {
		_, err := tx.ExecContext(ctx, `
INSERT INTO nest_metrics(run_id, nest_id, total_occupancy_duration, total_single_hen_duration)
VALUES (?, ?, ?, ?)`,
			runID, m.NestID, m.TotalOccupancyDuration, m.TotalSingleHenDuration)
		if err != nil {
			return "", fmt.Errorf("insert metrics for nest %d: %w", m.NestID, err)
		}
	}

	for pair, count := range res.CoOccurrences {
		_, err := tx.ExecContext(ctx, `
INSERT INTO co_occurrences(run_id, hen_a, hen_b, count) VALUES (?, ?, ?, ?)`,
			runID, pair.A, pair.B, count)
		if err != nil {
			return "", fmt.Errorf("insert co-occurrence %d,%d: %w", pair.A, pair.B, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

// CountRuns returns the number of persisted runs.
func (s *Store) CountRuns(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

// LoadMetrics reads back the per-nest metrics of a persisted run, ordered by
// nest id.
func (s *Store) LoadMetrics(ctx context.Context, runID string) ([]sim.NestMetrics, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT nest_id, total_occupancy_duration, total_single_hen_duration
FROM nest_metrics WHERE run_id = ? ORDER BY nest_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var metrics []sim.NestMetrics
	for rows.Next() {
		var m sim.NestMetrics
		if err := rows.Scan(&m.NestID, &m.TotalOccupancyDuration, &m.TotalSingleHenDuration); err != nil {
			return nil, fmt.Errorf("scan metrics: %w", err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}
