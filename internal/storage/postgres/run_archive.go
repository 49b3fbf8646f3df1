package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/overstack/internal/storage"
)

// RunArchiveRepository stores completed runs in the archived_runs and
// archived_run_traces tables.
type RunArchiveRepository struct {
	db *pgxpool.Pool
}

var _ storage.RunArchive = (*RunArchiveRepository)(nil)

// NewRunArchiveRepository creates a RunArchiveRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewRunArchiveRepository(db *pgxpool.Pool) *RunArchiveRepository {
	return &RunArchiveRepository{db: db}
}

// SaveRun inserts rec and its trace lines in one transaction.
//
// Precondition: rec must pass Validate.
// Postcondition: Returns storage.ErrRunExists if rec.ID is already archived;
// on any error nothing is written.
func (r *RunArchiveRepository) SaveRun(ctx context.Context, rec storage.RunRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	traits := rec.Traits
	if traits == nil {
		traits = []string{}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning archive transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var createdAt any
	if !rec.CreatedAt.IsZero() {
		createdAt = rec.CreatedAt.UTC()
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO archived_runs
		   (id, seed, max_nodes, traits, result, final_node, elapsed, event_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))`,
		[16]byte(rec.ID), storage.SeedToSQL(rec.Seed), int32(rec.MaxNodes), traits, rec.Result,
		int32(rec.FinalNode), rec.Elapsed, int32(rec.EventCount), createdAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrRunExists
		}
		return fmt.Errorf("inserting archived run: %w", err)
	}

	if len(rec.Trace) > 0 {
		rows := make([][]any, len(rec.Trace))
		for i, line := range rec.Trace {
			rows[i] = []any{[16]byte(rec.ID), int32(i), line}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"archived_run_traces"},
			[]string{"run_id", "seq", "line"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copying trace lines: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing archived run: %w", err)
	}
	return nil
}

// GetRun retrieves the record for id with its trace.
//
// Postcondition: Returns storage.ErrRunNotFound if id is not archived.
func (r *RunArchiveRepository) GetRun(ctx context.Context, id uuid.UUID) (storage.RunRecord, error) {
	rec, err := scanRun(r.db.QueryRow(ctx,
		`SELECT id, seed, max_nodes, traits, result, final_node, elapsed, event_count, created_at
		 FROM archived_runs WHERE id = $1`, [16]byte(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.RunRecord{}, storage.ErrRunNotFound
		}
		return storage.RunRecord{}, fmt.Errorf("querying archived run: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT line FROM archived_run_traces WHERE run_id = $1 ORDER BY seq`, [16]byte(id))
	if err != nil {
		return storage.RunRecord{}, fmt.Errorf("querying trace lines: %w", err)
	}
	lines, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return storage.RunRecord{}, fmt.Errorf("scanning trace lines: %w", err)
	}
	if len(lines) > 0 {
		rec.Trace = lines
	}
	return rec, nil
}

// ListRuns returns up to limit records, newest first, without traces.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *RunArchiveRepository) ListRuns(ctx context.Context, limit int) ([]storage.RunRecord, error) {
	if limit <= 0 {
		return []storage.RunRecord{}, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, seed, max_nodes, traits, result, final_node, elapsed, event_count, created_at
		 FROM archived_runs ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing archived runs: %w", err)
	}
	defer rows.Close()

	out := []storage.RunRecord{}
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning archived run: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating archived runs: %w", err)
	}
	return out, nil
}

func scanRun(row pgx.Row) (storage.RunRecord, error) {
	var (
		rec                          storage.RunRecord
		seed                         int64
		maxNodes, finalNode, evCount int32
	)
	err := row.Scan(&rec.ID, &seed, &maxNodes, &rec.Traits, &rec.Result,
		&finalNode, &rec.Elapsed, &evCount, &rec.CreatedAt)
	if err != nil {
		return storage.RunRecord{}, err
	}
	rec.Seed = storage.SeedFromSQL(seed)
	rec.MaxNodes = uint32(maxNodes)
	rec.FinalNode = uint32(finalNode)
	rec.EventCount = int(evCount)
	return rec, nil
}

func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
