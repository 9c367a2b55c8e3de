package core

import (
	"context"
	"time"
)

// =============================================================================
// Reasoning Service Port
// =============================================================================

// GenerateRequest is one prompt sent to the reasoning service.
type GenerateRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Tier         QualityTier
}

// GenerateResponse is the generated text plus token usage.
type GenerateResponse struct {
	Text         string
	InputTokens  int
	OutputTokens int
	Model        string
	Cached       bool
}

// TotalTokens returns input plus output tokens.
func (r GenerateResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// ReasoningService generates text from a system and user prompt.
// Failures are reported as *DomainError values (auth, rate limit, network,
// malformed response) so callers can decide whether to retry or degrade.
type ReasoningService interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}

// Validator is implemented by collaborators that can check their own
// configuration before any work starts.
type Validator interface {
	Validate() error
}

// =============================================================================
// Job Store Port
// =============================================================================

// JobStore persists one AnalysisJob per case.
type JobStore interface {
	// GetOrCreate returns the job for the case, creating it if needed, and
	// atomically resets its transient fields to a fresh QUEUED run. A job
	// that is PROCESSING is only reset when force is set; otherwise a
	// conflict error is returned.
	GetOrCreate(ctx context.Context, caseID string, force bool) (*AnalysisJob, error)

	// MarkProcessing moves a QUEUED job to PROCESSING. With force, a job
	// already PROCESSING is taken over.
	MarkProcessing(ctx context.Context, jobID string, force bool) error

	// UpdateJob applies a partial update. Checkpoints are validated before
	// they are written.
	UpdateJob(ctx context.Context, jobID string, update JobUpdate) error

	// GetJob loads a job by id.
	GetJob(ctx context.Context, jobID string) (*AnalysisJob, error)

	// GetJobByCase loads the job of a case.
	GetJobByCase(ctx context.Context, caseID string) (*AnalysisJob, error)

	// Enqueue records a QUEUED job for the case unless one is in flight.
	Enqueue(ctx context.Context, caseID string) (*AnalysisJob, error)

	// ListByStatus returns up to limit jobs in the status, oldest first.
	ListByStatus(ctx context.Context, status JobStatus, limit int) ([]*AnalysisJob, error)

	// Close releases resources.
	Close() error
}

// =============================================================================
// Input Loader Port
// =============================================================================

// InputLoader supplies the complete case input for a case. It returns an
// input error (ErrNoInput) when the claimant statement is absent, in which
// case no run may be started.
type InputLoader interface {
	Load(ctx context.Context, caseID string) (*AnalysisInput, error)
}

// =============================================================================
// Progress Port
// =============================================================================

// Progress is one progress notification of a run.
type Progress struct {
	CaseID   string    `json:"caseId"`
	JobID    string    `json:"jobId"`
	Phase    string    `json:"phase"`
	Progress int       `json:"progress"`
	Message  string    `json:"message,omitempty"`
	At       time.Time `json:"at"`
}

// ProgressFunc receives progress notifications in increasing percentage
// order within a run, followed by either "completed" at 100 or "failed" at 0.
type ProgressFunc func(Progress)
