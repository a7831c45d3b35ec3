// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package audit keeps a SQLite log of CLI research runs: what was asked,
// which sources failed, and which citations came back. The request path
// never reads it.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// timeLayout is fixed-width so started_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Run is one recorded search.
type Run struct {
	ID        string
	Kind      string // "bundle" or "trials"
	Query     string
	Filters   map[string]string
	StartedAt time.Time
	TookMs    int64
	Widened   bool
	Failed    []string

	// Citations is filled by Get only; Recent leaves it nil and sets Count.
	Citations []types.Citation
	Count     int
}

// Store manages the audit database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at cfg.Path, creating parent
// directories and the schema as needed.
func Open(cfg types.AuditConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("audit path is empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating audit directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db}
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
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			query TEXT NOT NULL,
			filters TEXT,
			started_at TEXT NOT NULL,
			took_ms INTEGER NOT NULL,
			widened INTEGER NOT NULL,
			failed TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS citations (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			source TEXT NOT NULL,
			record_id TEXT,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			body TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores run and its citations in one transaction and returns the
// run id, generating one when run.ID is empty.
func (s *Store) Record(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	filters, err := json.Marshal(run.Filters)
	if err != nil {
		return "", fmt.Errorf("encoding filters: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, kind, query, filters, started_at, took_ms, widened, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Query, string(filters),
		run.StartedAt.UTC().Format(timeLayout), run.TookMs, run.Widened,
		strings.Join(run.Failed, ","),
	); err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO citations (run_id, position, source, record_id, title, url, body)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing citation insert: %w", err)
	}
	defer stmt.Close()
	for i, c := range run.Citations {
		body, err := json.Marshal(c)
		if err != nil {
			return "", fmt.Errorf("encoding citation %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, string(c.Source), c.ID, c.Title, c.URL, string(body)); err != nil {
			return "", fmt.Errorf("inserting citation %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return run.ID, nil
}

// Recent returns up to limit runs, newest first. A non-empty match keeps
// runs whose query contains it, ignoring case.
func (s *Store) Recent(ctx context.Context, limit int, match string) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.kind, r.query, r.filters, r.started_at, r.took_ms, r.widened, r.failed,
		        (SELECT count(*) FROM citations c WHERE c.run_id = r.id)
		 FROM runs r
		 WHERE ? = '' OR lower(r.query) LIKE '%' || lower(?) || '%'
		 ORDER BY r.started_at DESC
		 LIMIT ?`,
		match, match, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Get returns one run with its citations in recorded order.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT r.id, r.kind, r.query, r.filters, r.started_at, r.took_ms, r.widened, r.failed,
		        (SELECT count(*) FROM citations c WHERE c.run_id = r.id)
		 FROM runs r WHERE r.id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM citations WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return Run{}, fmt.Errorf("querying citations: %w", err)
	}
	defer rows.Close()
	run.Citations = []types.Citation{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return Run{}, fmt.Errorf("scanning citation: %w", err)
		}
		var c types.Citation
		if err := json.Unmarshal([]byte(body), &c); err != nil {
			return Run{}, fmt.Errorf("decoding citation: %w", err)
		}
		run.Citations = append(run.Citations, c)
	}
	return run, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run       Run
		filters   sql.NullString
		failed    sql.NullString
		startedAt string
	)
	if err := sc.Scan(&run.ID, &run.Kind, &run.Query, &filters, &startedAt,
		&run.TookMs, &run.Widened, &failed, &run.Count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}
	t, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parsing started_at %q: %w", startedAt, err)
	}
	run.StartedAt = t
	if filters.String != "" && filters.String != "null" {
		if err := json.Unmarshal([]byte(filters.String), &run.Filters); err != nil {
			return Run{}, fmt.Errorf("decoding filters: %w", err)
		}
	}
	if failed.String != "" {
		run.Failed = strings.Split(failed.String, ",")
	}
	return run, nil
}
