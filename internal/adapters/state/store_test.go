package state

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/config"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

// forEachStore runs a contract test against every backend.
func forEachStore(t *testing.T, fn func(t *testing.T, store core.JobStore)) {
	t.Helper()
	backends := map[string]func(t *testing.T) core.JobStore{
		"sqlite": func(t *testing.T) core.JobStore {
			store, err := NewSQLiteJobStore(filepath.Join(t.TempDir(), "jobs.db"))
			require.NoError(t, err)
			return store
		},
		"memory": func(t *testing.T) core.JobStore {
			return NewMemoryJobStore()
		},
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			t.Cleanup(func() { _ = store.Close() })
			fn(t, store)
		})
	}
}

func sampleExtraction() *core.ExtractionOutput {
	out := core.EmptyExtraction()
	out.ClaimantFacts = []core.ExtractedFact{{
		ID: "claimant_fact_1", Statement: "Paid 500 on 5 January", Category: core.FactEvent, Confidence: 0.9,
	}}
	out.TokensUsed = 120
	return &out
}

func TestJobStore_GetOrCreate(t *testing.T) {
	forEachStore(t, func(t *testing.T, store core.JobStore) {
		ctx := context.Background()

		job, err := store.GetOrCreate(ctx, "case-1", false)
		require.NoError(t, err)
		assert.NotEmpty(t, job.ID)
		assert.Equal(t, "case-1", job.CaseID)
		assert.Equal(t, core.JobQueued, job.Status)
		assert.Equal(t, 0, job.Progress)

		again, err := store.GetOrCreate(ctx, "case-1", false)
		require.NoError(t, err)
		assert.Equal(t, job.ID, again.ID, "one job per case")

		_, err = store.GetOrCreate(ctx, " ", false)
		assert.True(t, core.IsCategory(err, core.ErrCatInput))
	})
}

func TestJobStore_ResetKeepsCheckpoints(t *testing.T) {
	forEachStore(t, func(t *testing.T, store core.JobStore) {
		ctx := context.Background()
		job, err := store.GetOrCreate(ctx, "case-1", false)
		require.NoError(t, err)
		require.NoError(t, store.MarkProcessing(ctx, job.ID, false))

		status := core.JobFailed
		progress := 0
		reason := "boom"
		tokens := 120
		now := time.Now()
		require.NoError(t, store.UpdateJob(ctx, job.ID, core.JobUpdate{
			Status:        &status,
			Progress:      &progress,
			TokensUsed:    &tokens,
			Extraction:    sampleExtraction(),
			FailedAt:      &now,
			FailureReason: &reason,
			Diagnostics:   []core.PhaseDiagnostic{{Phase: core.PhaseExtraction, Succeeded: true}},
		}))

		reset, err := store.GetOrCreate(ctx, "case-1", false)
		require.NoError(t, err)
		assert.Equal(t, core.JobQueued, reset.Status)
		assert.Empty(t, reset.FailureReason)
		assert.Nil(t, reset.FailedAt)
		assert.Nil(t, reset.StartedAt)
		assert.Zero(t, reset.TokensUsed)
		assert.Empty(t, reset.Diagnostics)
		require.NotNil(t, reset.Extraction, "checkpoints survive a reset")
		assert.Equal(t, "claimant_fact_1", reset.Extraction.ClaimantFacts[0].ID)
	})
}

func TestJobStore_InFlightConflict(t *testing.T) {
	forEachStore(t, func(t *testing.T, store core.JobStore) {
		ctx := context.Background()
		job, err := store.GetOrCreate(ctx, "case-1", false)
		require.NoError(t, err)
		require.NoError(t, store.MarkProcessing(ctx, job.ID, false))

		_, err = store.GetOrCreate(ctx, "case-1", false)
		assert.True(t, core.IsCategory(err, core.ErrCatConflict), "got %v", err)

		_, err = store.Enqueue(ctx, "case-1")
		assert.True(t, core.IsCategory(err, core.ErrCatConflict), "got %v", err)

		forced, err := store.GetOrCreate(ctx, "case-1", true)
		require.NoError(t, err)
		assert.Equal(t, core.JobQueued, forced.Status)
	})
}

func TestJobStore_MarkProcessing(t *testing.T) {
	forEachStore(t, func(t *testing.T, store core.JobStore) {
		ctx := context.Background()
		job, err := store.GetOrCreate(ctx, "case-1", false)
		require.NoError(t, err)

		require.NoError(t, store.MarkProcessing(ctx, job.ID, false))
		err = store.MarkProcessing(ctx, job.ID, false)
		assert.True(t, core.IsCategory(err, core.ErrCatConflict), "got %v", err)
		assert.NoError(t, store.MarkProcessing(ctx, job.ID, true), "force takes over a processing job")

		loaded, err := store.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, core.JobProcessing, loaded.Status)
		assert.NotNil(t, loaded.StartedAt)

		err = store.MarkProcessing(ctx, "missing", false)
		assert.True(t, core.IsCategory(err, core.ErrCatNotFound), "got %v", err)
	})
}

func TestJobStore_UpdateJob(t *testing.T) {
	forEachStore(t, func(t *testing.T, store core.JobStore) {
		ctx := context.Background()
		job, err := store.GetOrCreate(ctx, "case-1", false)
		require.NoError(t, err)

		phase := core.PhaseComparison
		progress := 40
		elapsed := 1500 * time.Millisecond
		cost := 0.0123
		comparison := core.EmptyComparison()
		comparison.Disputed = []core.DisputedFact{{ID: "disputed_1", Topic: "Delivery", Materiality: 0.8}}
		require.NoError(t, store.UpdateJob(ctx, job.ID, core.JobUpdate{
			SubPhase:       &phase,
			Progress:       &progress,
			ProcessingTime: &elapsed,
			EstimatedCost:  &cost,
			Comparison:     &comparison,
		}))

		loaded, err := store.GetJobByCase(ctx, "case-1")
		require.NoError(t, err)
		assert.Equal(t, core.PhaseComparison, loaded.SubPhase)
		assert.Equal(t, 40, loaded.Progress)
		assert.Equal(t, elapsed, loaded.ProcessingTime)
		assert.InDelta(t, cost, loaded.EstimatedCost, 1e-9)
		require.NotNil(t, loaded.Comparison)
		assert.Equal(t, "Delivery", loaded.Comparison.Disputed[0].Topic)
		assert.Nil(t, loaded.Extraction, "untouched checkpoints stay empty")

		bad := core.EmptyComparison()
		bad.Disputed = []core.DisputedFact{{ID: "d", Topic: "x", Materiality: 3}}
		err = store.UpdateJob(ctx, job.ID, core.JobUpdate{Comparison: &bad})
		assert.True(t, core.IsCategory(err, core.ErrCatPersistence), "got %v", err)

		err = store.UpdateJob(ctx, "missing", core.JobUpdate{Progress: &progress})
		assert.True(t, core.IsCategory(err, core.ErrCatNotFound), "got %v", err)

		_, err = store.GetJobByCase(ctx, "other")
		assert.True(t, core.IsCategory(err, core.ErrCatNotFound), "got %v", err)
	})
}

func TestJobStore_ListByStatus(t *testing.T) {
	forEachStore(t, func(t *testing.T, store core.JobStore) {
		ctx := context.Background()
		for _, id := range []string{"case-a", "case-b", "case-c"} {
			_, err := store.Enqueue(ctx, id)
			require.NoError(t, err)
			time.Sleep(2 * time.Millisecond)
		}
		b, err := store.GetJobByCase(ctx, "case-b")
		require.NoError(t, err)
		require.NoError(t, store.MarkProcessing(ctx, b.ID, false))

		queued, err := store.ListByStatus(ctx, core.JobQueued, 0)
		require.NoError(t, err)
		require.Len(t, queued, 2)
		assert.Equal(t, "case-a", queued[0].CaseID)
		assert.Equal(t, "case-c", queued[1].CaseID)

		limited, err := store.ListByStatus(ctx, core.JobQueued, 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		none, err := store.ListByStatus(ctx, core.JobCompleted, 10)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})
}

func TestJobStore_ConcurrentStartsOnlyOneWins(t *testing.T) {
	forEachStore(t, func(t *testing.T, store core.JobStore) {
		ctx := context.Background()
		const runners = 8

		var started atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < runners; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				job, err := store.GetOrCreate(ctx, "case-race", false)
				if err != nil {
					return
				}
				if store.MarkProcessing(ctx, job.ID, false) == nil {
					started.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), started.Load())
	})
}

func TestSQLiteJobStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "jobs.db")
	ctx := context.Background()

	store, err := NewSQLiteJobStore(path)
	require.NoError(t, err)
	job, err := store.GetOrCreate(ctx, "case-1", false)
	require.NoError(t, err)
	require.NoError(t, store.UpdateJob(ctx, job.ID, core.JobUpdate{Extraction: sampleExtraction()}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteJobStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Extraction)
	assert.Equal(t, 120, loaded.Extraction.TokensUsed)
}

func TestSQLiteJobStore_CorruptCheckpoint(t *testing.T) {
	store, err := NewSQLiteJobStore(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	job, err := store.GetOrCreate(ctx, "case-1", false)
	require.NoError(t, err)

	_, err = store.db.ExecContext(ctx, "UPDATE analysis_jobs SET timeline = ? WHERE id = ?", `{"events": "nope"}`, job.ID)
	require.NoError(t, err)
	_, err = store.GetJob(ctx, job.ID)
	assert.True(t, core.IsCategory(err, core.ErrCatPersistence), "got %v", err)

	_, err = store.db.ExecContext(ctx, "UPDATE analysis_jobs SET timeline = ? WHERE id = ?",
		`{"events": [{"id": "e1", "date": "unknown", "event": "", "source": "evidence"}]}`, job.ID)
	require.NoError(t, err)
	_, err = store.GetJob(ctx, job.ID)
	assert.True(t, core.IsCategory(err, core.ErrCatPersistence), "schema violations are reported, got %v", err)
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("-- comment\nCREATE TABLE a (x INT);\n\n-- other\nCREATE INDEX i ON a(x);\n")
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x INT)", stmts[0])
}

func TestNewJobStore(t *testing.T) {
	_, err := NewJobStore(configFor("sqlite", ""))
	assert.True(t, core.IsCategory(err, core.ErrCatConfiguration))

	_, err = NewJobStore(configFor("postgres", "x"))
	assert.True(t, core.IsCategory(err, core.ErrCatConfiguration))

	mem, err := NewJobStore(configFor("memory", ""))
	require.NoError(t, err)
	assert.IsType(t, &MemoryJobStore{}, mem)

	sqlite, err := NewJobStore(configFor("sqlite", filepath.Join(t.TempDir(), "jobs.db")))
	require.NoError(t, err)
	defer sqlite.Close()
	assert.IsType(t, &SQLiteJobStore{}, sqlite)
}

func configFor(backend, path string) config.StoreConfig {
	return config.StoreConfig{Backend: backend, Path: path}
}
