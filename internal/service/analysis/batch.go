package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/logging"
)

// defaultBatchWorkers is used when no positive worker count is configured.
const defaultBatchWorkers = 2

// BatchReport summarizes one ProcessPending pass.
type BatchReport struct {
	Processed int
	Completed int
	Failed    int
	// Skipped counts jobs another worker took over first.
	Skipped int
}

// Batch drains QUEUED jobs through an orchestrator.
type Batch struct {
	orchestrator *Orchestrator
	store        core.JobStore
	loader       core.InputLoader
	workers      int
	logger       *logging.Logger
}

// NewBatch creates a batch processor running up to workers analyses at once.
func NewBatch(o *Orchestrator, store core.JobStore, loader core.InputLoader, workers int, logger *logging.Logger) *Batch {
	if workers <= 0 {
		workers = defaultBatchWorkers
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Batch{
		orchestrator: o,
		store:        store,
		loader:       loader,
		workers:      workers,
		logger:       logger.WithComponent("batch"),
	}
}

// ProcessPending runs up to limit QUEUED jobs, oldest first. Individual job
// failures are counted in the report; only failing to list jobs is an error.
func (b *Batch) ProcessPending(ctx context.Context, limit int) (BatchReport, error) {
	jobs, err := b.store.ListByStatus(ctx, core.JobQueued, limit)
	if err != nil {
		return BatchReport{}, fmt.Errorf("listing queued jobs: %w", err)
	}
	if len(jobs) == 0 {
		b.logger.Info("no queued jobs")
		return BatchReport{}, nil
	}

	var (
		mu     sync.Mutex
		report BatchReport
	)
	count := func(f func(*BatchReport)) {
		mu.Lock()
		defer mu.Unlock()
		f(&report)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for _, job := range jobs {
		g.Go(func() error {
			status := b.processOne(gctx, job)
			count(func(r *BatchReport) {
				switch status {
				case core.JobCompleted:
					r.Processed++
					r.Completed++
				case core.JobFailed:
					r.Processed++
					r.Failed++
				default:
					r.Skipped++
				}
			})
			return nil
		})
	}
	_ = g.Wait()

	b.logger.Info("batch finished",
		"processed", report.Processed,
		"completed", report.Completed,
		"failed", report.Failed,
		"skipped", report.Skipped,
	)
	return report, nil
}

// processOne returns the terminal status of the job, or an empty status when
// the job was skipped.
func (b *Batch) processOne(ctx context.Context, job *core.AnalysisJob) core.JobStatus {
	logger := b.logger.WithCase(job.CaseID).WithJob(job.ID)

	in, err := b.loader.Load(ctx, job.CaseID)
	if err != nil {
		logger.Warn("loading case input failed", "error", err)
		b.markFailed(ctx, job.ID, fmt.Sprintf("loading case input: %v", err))
		return core.JobFailed
	}

	result, err := b.orchestrator.RunAnalysis(ctx, in, Options{}, nil)
	switch {
	case core.IsCategory(err, core.ErrCatConflict):
		logger.Info("job already in flight, skipping")
		return ""
	case err != nil:
		logger.Warn("analysis rejected", "error", err)
		b.markFailed(ctx, job.ID, err.Error())
		return core.JobFailed
	default:
		return result.Status
	}
}

func (b *Batch) markFailed(ctx context.Context, jobID, reason string) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalSaveTimeout)
	defer cancel()

	status := core.JobFailed
	zero := 0
	now := time.Now().UTC()
	err := b.store.UpdateJob(saveCtx, jobID, core.JobUpdate{
		Status:        &status,
		Progress:      &zero,
		FailedAt:      &now,
		FailureReason: &reason,
	})
	if err != nil {
		b.logger.Error("failed to record job failure", "job_id", jobID, "error", err)
	}
}
