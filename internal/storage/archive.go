// Package storage defines the run archive: write-once records of completed
// runs, kept for history and replay comparison.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when an archive lookup yields no record.
var ErrRunNotFound = errors.New("archived run not found")

// ErrRunExists is returned when a record with the same ID was already saved.
var ErrRunExists = errors.New("archived run already exists")

// RunRecord is the archived outcome of one completed run.
type RunRecord struct {
	ID        uuid.UUID
	Seed      uint64
	MaxNodes  uint32
	Traits    []string
	Result    string
	FinalNode uint32
	Elapsed   float64
	// EventCount is the number of trace events; it equals len(Trace) when the
	// full trace was kept.
	EventCount int
	Trace      []string
	CreatedAt  time.Time
}

// Validate checks the record before it is written.
//
// Postcondition: Returns nil if the record can be archived.
func (r RunRecord) Validate() error {
	if r.ID == uuid.Nil {
		return fmt.Errorf("run record: id must be set")
	}
	if r.MaxNodes == 0 {
		return fmt.Errorf("run record: max_nodes must be >= 1")
	}
	switch r.Result {
	case "win", "lose":
	default:
		return fmt.Errorf("run record: result must be win or lose, got %q", r.Result)
	}
	if r.EventCount < len(r.Trace) {
		return fmt.Errorf("run record: event_count %d is less than trace length %d", r.EventCount, len(r.Trace))
	}
	return nil
}

// RunArchive persists completed runs.
type RunArchive interface {
	// SaveRun writes rec. A second save of the same ID fails with ErrRunExists.
	SaveRun(ctx context.Context, rec RunRecord) error
	// GetRun returns the record for id, or ErrRunNotFound.
	GetRun(ctx context.Context, id uuid.UUID) (RunRecord, error)
	// ListRuns returns up to limit records, newest first, without traces.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}

// SeedToSQL maps a seed onto the signed 64-bit column type, preserving bits.
func SeedToSQL(seed uint64) int64 { return int64(seed) }

// SeedFromSQL reverses SeedToSQL.
func SeedFromSQL(v int64) uint64 { return uint64(v) }
