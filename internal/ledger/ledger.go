// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps a local SQLite history of validate runs, their
// per-claim verdicts, and Crossref records fetched by the resolver.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/exa/pkg/types"
)

// Store wraps the ledger database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Run is one recorded validate invocation.
type Run struct {
	ID        int64
	Input     string
	StartedAt time.Time
	Tolerance float64
	Summary   types.Summary
}

// Open opens or creates the ledger at path, creating parent directories and
// the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			input TEXT NOT NULL,
			started_at TEXT NOT NULL,
			tolerance REAL NOT NULL,
			passed INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			unchecked INTEGER NOT NULL,
			error INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS verdicts (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			claim_id TEXT NOT NULL,
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			reason TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verdicts_status ON verdicts(status)`,
		`CREATE TABLE IF NOT EXISTS works (
			doi TEXT PRIMARY KEY,
			message TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun stores a validate run and its verdicts in one transaction and
// returns the new run ID.
func (s *Store) RecordRun(ctx context.Context, input string, tolerance float64, report types.Report) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (input, started_at, tolerance, passed, failed, unchecked, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		input,
		s.now().UTC().Format(time.RFC3339Nano),
		tolerance,
		report.Summary[types.StatusPassed],
		report.Summary[types.StatusFailed],
		report.Summary[types.StatusUnchecked],
		report.Summary[types.StatusError],
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO verdicts (run_id, seq, claim_id, type, status, reason) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing verdict insert: %w", err)
	}
	defer stmt.Close()

	for i, v := range report.Results {
		if _, err := stmt.ExecContext(ctx, runID, i, v.ID, string(v.Type), string(v.Status), v.Reason); err != nil {
			return 0, fmt.Errorf("inserting verdict %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// Runs returns up to limit runs, newest first. A non-positive limit returns
// every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input, started_at, tolerance, passed, failed, unchecked, error
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			r                                 Run
			started                           string
			passed, failed, unchecked, errored int
		)
		if err := rows.Scan(&r.ID, &r.Input, &started, &r.Tolerance, &passed, &failed, &unchecked, &errored); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.Summary = types.Summary{
			types.StatusPassed:    passed,
			types.StatusFailed:    failed,
			types.StatusUnchecked: unchecked,
			types.StatusError:     errored,
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Verdicts returns the verdicts recorded for runID in insertion order.
func (s *Store) Verdicts(ctx context.Context, runID int64) ([]types.Verdict, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT claim_id, type, status, reason FROM verdicts WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying verdicts: %w", err)
	}
	defer rows.Close()

	verdicts := []types.Verdict{}
	for rows.Next() {
		var v types.Verdict
		var typ, status string
		if err := rows.Scan(&v.ID, &typ, &status, &v.Reason); err != nil {
			return nil, fmt.Errorf("scanning verdict: %w", err)
		}
		v.Type = types.ClaimType(typ)
		v.Status = types.Status(status)
		verdicts = append(verdicts, v)
	}
	return verdicts, rows.Err()
}

// PutWork stores or replaces the Crossref message for doi.
func (s *Store) PutWork(ctx context.Context, doi string, message json.RawMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO works (doi, message, fetched_at) VALUES (?, ?, ?)`,
		doi, string(message), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("storing work %s: %w", doi, err)
	}
	return nil
}

// GetWork returns the stored message for doi if it was fetched within
// maxAge. A non-positive maxAge accepts any age.
func (s *Store) GetWork(ctx context.Context, doi string, maxAge time.Duration) (json.RawMessage, bool, error) {
	var message, fetched string
	err := s.db.QueryRowContext(ctx,
		`SELECT message, fetched_at FROM works WHERE doi = ?`, doi).Scan(&message, &fetched)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading work %s: %w", doi, err)
	}

	if maxAge > 0 {
		at, err := time.Parse(time.RFC3339Nano, fetched)
		if err != nil || s.now().Sub(at) > maxAge {
			return nil, false, nil
		}
	}
	return json.RawMessage(message), true, nil
}
