// Package store handles SQLite persistence of run history.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Run is one completed (or aborted) training run.
type Run struct {
	ID                 int64
	StartedAt          time.Time
	EndedAt            time.Time
	NotesPerTurn       int
	MaxInterval        int
	Repetitions        int
	SequencesCompleted int
	Instrument         string
	Strategy           string
}

// Store wraps SQLite access for run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			notes_per_turn INTEGER NOT NULL,
			max_interval INTEGER NOT NULL,
			repetitions INTEGER NOT NULL,
			sequences_completed INTEGER NOT NULL,
			instrument TEXT NOT NULL,
			strategy TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ended_at ON runs(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun stores a finished run and returns its id.
func (s *Store) SaveRun(ctx context.Context, run Run) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, ended_at, notes_per_turn, max_interval, repetitions, sequences_completed, instrument, strategy)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt.Format(time.RFC3339Nano),
		run.EndedAt.Format(time.RFC3339Nano),
		run.NotesPerTurn,
		run.MaxInterval,
		run.Repetitions,
		run.SequencesCompleted,
		run.Instrument,
		run.Strategy,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecentRuns returns up to limit runs, most recent first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, ended_at, notes_per_turn, max_interval, repetitions, sequences_completed, instrument, strategy
		 FROM runs ORDER BY ended_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, ended string
		if err := rows.Scan(&run.ID, &started, &ended, &run.NotesPerTurn,
			&run.MaxInterval, &run.Repetitions, &run.SequencesCompleted,
			&run.Instrument, &run.Strategy); err != nil {
			return nil, err
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, err
		}
		if run.EndedAt, err = time.Parse(time.RFC3339Nano, ended); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
