package state

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

// MemoryJobStore implements core.JobStore in process memory. Jobs are lost
// on exit; it backs tests and one-off runs.
type MemoryJobStore struct {
	mu     sync.Mutex
	byID   map[string]*core.AnalysisJob
	byCase map[string]string
	now    func() time.Time
}

// NewMemoryJobStore creates an empty in-memory store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		byID:   make(map[string]*core.AnalysisJob),
		byCase: make(map[string]string),
		now:    time.Now,
	}
}

// GetOrCreate implements core.JobStore.
func (s *MemoryJobStore) GetOrCreate(_ context.Context, caseID string, force bool) (*core.AnalysisJob, error) {
	if strings.TrimSpace(caseID) == "" {
		return nil, core.ErrInput(core.CodeMissingCaseID, "case id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if id, ok := s.byCase[caseID]; ok {
		job := s.byID[id]
		if job.Status == core.JobProcessing && !force {
			return nil, core.ErrConflict(core.CodeJobInFlight, "analysis already in progress for case "+caseID).
				WithDetail("case_id", caseID)
		}
		job.ResetTransient(now)
		return cloneJob(job), nil
	}

	job := &core.AnalysisJob{
		ID:        uuid.NewString(),
		CaseID:    caseID,
		Status:    core.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byID[job.ID] = job
	s.byCase[caseID] = job.ID
	return cloneJob(job), nil
}

// Enqueue implements core.JobStore.
func (s *MemoryJobStore) Enqueue(ctx context.Context, caseID string) (*core.AnalysisJob, error) {
	return s.GetOrCreate(ctx, caseID, false)
}

// MarkProcessing implements core.JobStore.
func (s *MemoryJobStore) MarkProcessing(_ context.Context, jobID string, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.byID[jobID]
	if !ok {
		return core.ErrNotFound("job", jobID)
	}
	if job.Status != core.JobQueued && !(force && job.Status == core.JobProcessing) {
		return core.ErrConflict(core.CodeJobNotQueued,
			fmt.Sprintf("job %s is %s, not QUEUED", jobID, job.Status)).WithDetail("case_id", job.CaseID)
	}
	now := s.now().UTC()
	job.Status = core.JobProcessing
	job.StartedAt = &now
	job.UpdatedAt = now
	return nil
}

// UpdateJob implements core.JobStore.
func (s *MemoryJobStore) UpdateJob(_ context.Context, jobID string, update core.JobUpdate) error {
	if err := update.Validate(); err != nil {
		return core.ErrPersistence(core.CodeBadCheckpoint, "rejected invalid job update").WithCause(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.byID[jobID]
	if !ok {
		return core.ErrNotFound("job", jobID)
	}
	update.Apply(job)
	job.UpdatedAt = s.now().UTC()
	return nil
}

// GetJob implements core.JobStore.
func (s *MemoryJobStore) GetJob(_ context.Context, jobID string) (*core.AnalysisJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.byID[jobID]
	if !ok {
		return nil, core.ErrNotFound("job", jobID)
	}
	return cloneJob(job), nil
}

// GetJobByCase implements core.JobStore.
func (s *MemoryJobStore) GetJobByCase(_ context.Context, caseID string) (*core.AnalysisJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byCase[caseID]
	if !ok {
		return nil, core.ErrNotFound("job for case", caseID)
	}
	return cloneJob(s.byID[id]), nil
}

// ListByStatus implements core.JobStore.
func (s *MemoryJobStore) ListByStatus(_ context.Context, status core.JobStatus, limit int) ([]*core.AnalysisJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := []*core.AnalysisJob{}
	for _, job := range s.byID {
		if job.Status == status {
			jobs = append(jobs, cloneJob(job))
		}
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// Close implements core.JobStore.
func (s *MemoryJobStore) Close() error {
	return nil
}

// cloneJob copies a job so callers cannot mutate stored state. Checkpoints
// are replaced wholesale on update and are shared read-only.
func cloneJob(job *core.AnalysisJob) *core.AnalysisJob {
	c := *job
	if job.Diagnostics != nil {
		c.Diagnostics = append([]core.PhaseDiagnostic(nil), job.Diagnostics...)
	}
	return &c
}

// Verify that MemoryJobStore implements core.JobStore.
var _ core.JobStore = (*MemoryJobStore)(nil)
