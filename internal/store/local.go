// Package store keeps the run history in a local SQLite database so that a
// generated object set can be traced back to its seed and inputs.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded build.
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	// Seed is the seed actually used; FreshSeed marks one drawn because none was fixed.
	Seed      int64
	FreshSeed bool
	// ObjectSetHash and ConfigHash identify the inputs (see config.Hash).
	ObjectSetHash string
	ConfigHash    string
	Objects       int
	Batches       int
	Capped        int
	OutDir        string
}

// LocalStore records runs in SQLite.
type LocalStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewLocalStore initializes the SQLite database at the given path.
func NewLocalStore(path string) (*LocalStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &LocalStore{db: db, dbPath: path}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *LocalStore) initialize() error {
	runsTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		seed INTEGER NOT NULL,
		fresh_seed INTEGER NOT NULL DEFAULT 0,
		object_set_hash TEXT NOT NULL,
		config_hash TEXT,
		objects INTEGER NOT NULL,
		batches INTEGER NOT NULL,
		capped INTEGER NOT NULL DEFAULT 0,
		out_dir TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_hash ON runs(object_set_hash);
	`
	if _, err := s.db.Exec(runsTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *LocalStore) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

// RecordRun stores a run. Recording the same ID twice replaces the first.
func (s *LocalStore) RecordRun(r Run) error {
	if r.ID == "" {
		return fmt.Errorf("failed to record run: empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO runs
			(id, started_at, duration_ms, seed, fresh_seed, object_set_hash, config_hash, objects, batches, capped, out_dir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC().Format(time.RFC3339Nano), r.Duration.Milliseconds(),
		r.Seed, r.FreshSeed, r.ObjectSetHash, r.ConfigHash,
		r.Objects, r.Batches, r.Capped, r.OutDir)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

const runColumns = `id, started_at, duration_ms, seed, fresh_seed, object_set_hash, COALESCE(config_hash, ''), objects, batches, capped, out_dir`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	var started string
	var durationMs int64
	if err := row.Scan(&r.ID, &started, &durationMs, &r.Seed, &r.FreshSeed,
		&r.ObjectSetHash, &r.ConfigHash, &r.Objects, &r.Batches, &r.Capped, &r.OutDir); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, fmt.Errorf("failed to parse run time %q: %w", started, err)
	}
	r.StartedAt = t
	r.Duration = time.Duration(durationMs) * time.Millisecond
	return r, nil
}

// GetRun returns the run with the given ID.
func (s *LocalStore) GetRun(id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all of them.
func (s *LocalStore) ListRuns(limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunsForObjectSet returns every run built from the object set with the given hash, newest first.
func (s *LocalStore) RunsForObjectSet(hash string) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs WHERE object_set_hash = ? ORDER BY started_at DESC`, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to query runs: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
