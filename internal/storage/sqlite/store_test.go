package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/overstack/internal/storage"
	"github.com/cory-johannsen/overstack/internal/storage/sqlite"
)

func openTempStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.db")
	store, err := sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func record(seed uint64, created time.Time, traits ...string) storage.RunRecord {
	return storage.RunRecord{
		ID:         uuid.New(),
		Seed:       seed,
		MaxNodes:   1,
		Traits:     traits,
		Result:     "win",
		FinalNode:  1,
		Elapsed:    14.3,
		EventCount: 2,
		Trace: []string{
			`{"tick":0,"kind":"RunStart","seed":1}`,
			`{"tick":143,"kind":"RunEnd","result":"win","final_node_index":1}`,
		},
		CreatedAt: created,
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), " ")
	assert.Error(t, err)
}

func TestStore_SaveGetRoundTrip(t *testing.T) {
	store, _ := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.February, 22, 16, 40, 0, 0, time.UTC)
	rec := record(42, now, "cinder_scholar", "overcharge")

	require.NoError(t, store.SaveRun(ctx, rec))
	got, err := store.GetRun(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestStore_EmptyTraitsAndTrace(t *testing.T) {
	store, _ := openTempStore(t)
	ctx := context.Background()
	rec := record(1, time.UnixMilli(1000).UTC())
	rec.Trace = nil

	require.NoError(t, store.SaveRun(ctx, rec))
	got, err := store.GetRun(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Traits)
	assert.Nil(t, got.Trace)
	assert.Equal(t, 2, got.EventCount)
}

func TestStore_DuplicateID(t *testing.T) {
	store, _ := openTempStore(t)
	rec := record(1, time.Now())
	require.NoError(t, store.SaveRun(context.Background(), rec))
	assert.ErrorIs(t, store.SaveRun(context.Background(), rec), storage.ErrRunExists)
}

func TestStore_GetUnknown(t *testing.T) {
	store, _ := openTempStore(t)
	_, err := store.GetRun(context.Background(), uuid.New())
	assert.ErrorIs(t, err, storage.ErrRunNotFound)
}

func TestStore_RejectsInvalidRecord(t *testing.T) {
	store, _ := openTempStore(t)
	rec := record(1, time.Now())
	rec.Result = ""
	assert.Error(t, store.SaveRun(context.Background(), rec))
}

func TestStore_ListNewestFirst(t *testing.T) {
	store, _ := openTempStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		rec := record(uint64(i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.SaveRun(ctx, rec))
		ids = append(ids, rec.ID)
	}

	got, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[2], got[0].ID)
	assert.Equal(t, ids[1], got[1].ID)
	assert.Nil(t, got[0].Trace)
}

func TestStore_ReopenKeepsDataAndSkipsAppliedMigrations(t *testing.T) {
	store, path := openTempStore(t)
	rec := record(9, time.Now())
	require.NoError(t, store.SaveRun(context.Background(), rec))
	require.NoError(t, store.Close())

	again, err := sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	defer again.Close()
	got, err := again.GetRun(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
}

func TestStore_CancelledContext(t *testing.T) {
	store, _ := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.SaveRun(ctx, record(1, time.Now())), context.Canceled)
}

func TestProperty_StoreRoundTripsSeedsAndTraces(t *testing.T) {
	store, _ := openTempStore(t)
	rapid.Check(t, func(rt *rapid.T) {
		rec := record(rapid.Uint64().Draw(rt, "seed"), time.UnixMilli(rapid.Int64Range(0, 1<<40).Draw(rt, "ms")).UTC())
		rec.Trace = rapid.SliceOf(rapid.StringMatching(`\{"tick":[0-9]{1,5}\}`)).Draw(rt, "trace")
		rec.EventCount = len(rec.Trace)
		if len(rec.Trace) == 0 {
			rec.Trace = nil
		}
		if err := store.SaveRun(context.Background(), rec); err != nil {
			rt.Fatalf("save: %v", err)
		}
		got, err := store.GetRun(context.Background(), rec.ID)
		if err != nil {
			rt.Fatalf("get: %v", err)
		}
		if got.Seed != rec.Seed {
			rt.Fatalf("seed %d came back as %d", rec.Seed, got.Seed)
		}
		if len(got.Trace) != len(rec.Trace) {
			rt.Fatalf("trace length %d, want %d", len(got.Trace), len(rec.Trace))
		}
		for i := range rec.Trace {
			if got.Trace[i] != rec.Trace[i] {
				rt.Fatalf("line %d = %q, want %q", i, got.Trace[i], rec.Trace[i])
			}
		}
	})
}
