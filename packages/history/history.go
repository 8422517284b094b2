// Package history keeps a SQLite record of suite runs so failures can be
// compared across runs against the shared service.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/storyspoiler/packages/core/runner"
	"github.com/google/uuid"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath is where the history database lives when none is configured.
const DefaultPath = ".storyspoiler/history.db"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	base_url    TEXT NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	duration_ms INTEGER NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS scenario_results (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	name        TEXT NOT NULL,
	status      TEXT NOT NULL,
	status_code INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL,
	message     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at);
`

// Scenario statuses as stored.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// ErrRunNotFound is returned by Get for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Run is a stored suite run.
type Run struct {
	ID        uuid.UUID
	BaseURL   string
	StartedAt time.Time
	Duration  time.Duration
	Passed    int
	Failed    int
	Skipped   int
	Error     string
	Scenarios []Scenario
}

// Scenario is a stored scenario outcome.
type Scenario struct {
	Position   int
	Name       string
	Status     string
	StatusCode int
	Duration   time.Duration
	Message    string
}

// Store is a run history database
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path. A "sqlite://" or
// "sqlite:" prefix is accepted and stripped.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := strings.TrimSpace(path)
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	dsn = strings.TrimPrefix(dsn, "sqlite:")
	if dsn == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// sqlite allows one writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores a suite result and its scenario outcomes in one transaction.
func (s *Store) Record(ctx context.Context, result *runner.SuiteResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var runErr string
	if result.Error != nil {
		runErr = result.Error.Error()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, base_url, started_at, duration_ms, passed, failed, skipped, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID.String(), result.BaseURL, result.StartedAt.UTC(),
		result.Duration.Milliseconds(), result.Passed, result.Failed, result.Skipped, runErr)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO scenario_results (run_id, position, name, status, status_code, duration_ms, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare scenario insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range result.Results {
		sc := scenarioRow(r)
		if _, err := stmt.ExecContext(ctx, result.RunID.String(), i+1, sc.Name, sc.Status,
			sc.StatusCode, sc.Duration.Milliseconds(), sc.Message); err != nil {
			return fmt.Errorf("insert scenario %s: %w", r.Name, err)
		}
	}

	return tx.Commit()
}

func scenarioRow(r *runner.ScenarioResult) Scenario {
	sc := Scenario{
		Name:     r.Name,
		Duration: r.Duration,
	}
	if r.Response != nil {
		sc.StatusCode = r.Response.StatusCode
	}

	switch {
	case r.Skipped:
		sc.Status = StatusSkipped
		sc.Message = r.SkipReason
	case r.Passed:
		sc.Status = StatusPassed
	default:
		sc.Status = StatusFailed
		if r.Error != nil {
			sc.Message = r.Error.Error()
			break
		}
		for _, a := range r.Assertions {
			if !a.Passed {
				sc.Message = a.Message
				break
			}
		}
	}
	return sc
}

// Recent returns up to limit runs, newest first, without scenario details.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, base_url, started_at, duration_ms, passed, failed, skipped, error
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// Get returns one run with its scenario outcomes.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, base_url, started_at, duration_ms, passed, failed, skipped, error
		 FROM runs WHERE id = ?`, id.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT position, name, status, status_code, duration_ms, message
		 FROM scenario_results WHERE run_id = ? ORDER BY position`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query scenarios: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc Scenario
		var durationMs int64
		if err := rows.Scan(&sc.Position, &sc.Name, &sc.Status, &sc.StatusCode, &durationMs, &sc.Message); err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		sc.Duration = time.Duration(durationMs) * time.Millisecond
		run.Scenarios = append(run.Scenarios, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return &run, nil
}

// Prune deletes all but the newest keep runs and reports how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY started_at DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var id string
	var durationMs int64
	err := row.Scan(&id, &run.BaseURL, &run.StartedAt, &durationMs,
		&run.Passed, &run.Failed, &run.Skipped, &run.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return run, err
	}
	if err != nil {
		return run, fmt.Errorf("failed to scan run: %w", err)
	}

	run.ID, err = uuid.Parse(id)
	if err != nil {
		return run, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return run, nil
}
