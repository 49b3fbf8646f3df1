// Package sqlite provides a SQLite-backed run archive for single-host
// deployments and the simrun CLI.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/cory-johannsen/overstack/internal/storage"
	"github.com/cory-johannsen/overstack/internal/storage/sqlite/migrations"
)

// Store persists archived runs in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.RunArchive = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the archive at path, creating it if needed, and applies the
// embedded migrations.
//
// Precondition: path must be non-empty.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveRun inserts rec and its trace lines in one transaction.
//
// Postcondition: Returns storage.ErrRunExists if rec.ID is already archived.
func (s *Store) SaveRun(ctx context.Context, rec storage.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO archived_runs (
		   id, seed, max_nodes, traits, result, final_node, elapsed, event_count, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(),
		storage.SeedToSQL(rec.Seed),
		rec.MaxNodes,
		strings.Join(rec.Traits, ","),
		rec.Result,
		rec.FinalNode,
		rec.Elapsed,
		rec.EventCount,
		toMillis(created),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrRunExists
		}
		return fmt.Errorf("insert archived run: %w", err)
	}

	if len(rec.Trace) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO archived_run_traces (run_id, seq, line) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare trace insert: %w", err)
		}
		defer stmt.Close()
		for i, line := range rec.Trace {
			if _, err := stmt.ExecContext(ctx, rec.ID.String(), i, line); err != nil {
				return fmt.Errorf("insert trace line %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archived run: %w", err)
	}
	return nil
}

// GetRun returns the record for id with its trace.
//
// Postcondition: Returns storage.ErrRunNotFound if id is not archived.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (storage.RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.RunRecord{}, err
	}
	rec, err := scanRun(s.sqlDB.QueryRowContext(ctx,
		`SELECT id, seed, max_nodes, traits, result, final_node, elapsed, event_count, created_at
		 FROM archived_runs WHERE id = ?`, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.RunRecord{}, storage.ErrRunNotFound
		}
		return storage.RunRecord{}, fmt.Errorf("get archived run: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT line FROM archived_run_traces WHERE run_id = ? ORDER BY seq`, id.String())
	if err != nil {
		return storage.RunRecord{}, fmt.Errorf("query trace lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return storage.RunRecord{}, fmt.Errorf("scan trace line: %w", err)
		}
		rec.Trace = append(rec.Trace, line)
	}
	if err := rows.Err(); err != nil {
		return storage.RunRecord{}, fmt.Errorf("iterate trace lines: %w", err)
	}
	return rec, nil
}

// ListRuns returns up to limit records, newest first, without traces.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]storage.RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []storage.RunRecord{}, nil
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, seed, max_nodes, traits, result, final_node, elapsed, event_count, created_at
		 FROM archived_runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list archived runs: %w", err)
	}
	defer rows.Close()

	out := []storage.RunRecord{}
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan archived run: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archived runs: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (storage.RunRecord, error) {
	var (
		rec       storage.RunRecord
		id        string
		seed      int64
		traits    string
		createdAt int64
	)
	if err := row.Scan(&id, &seed, &rec.MaxNodes, &traits, &rec.Result,
		&rec.FinalNode, &rec.Elapsed, &rec.EventCount, &createdAt); err != nil {
		return storage.RunRecord{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return storage.RunRecord{}, fmt.Errorf("parse run id %q: %w", id, err)
	}
	rec.ID = parsed
	rec.Seed = storage.SeedFromSQL(seed)
	if traits != "" {
		rec.Traits = strings.Split(traits, ",")
	} else {
		rec.Traits = []string{}
	}
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
