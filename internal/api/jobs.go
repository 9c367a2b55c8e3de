package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// JobResponse is the API representation of an analysis job.
type JobResponse struct {
	ID               string                 `json:"id"`
	CaseID           string                 `json:"caseId"`
	Status           core.JobStatus         `json:"status"`
	SubPhase         string                 `json:"subPhase,omitempty"`
	Progress         int                    `json:"progress"`
	TokensUsed       int                    `json:"tokensUsed"`
	EstimatedCost    float64                `json:"estimatedCost"`
	ProcessingTimeMs int64                  `json:"processingTimeMs"`
	FailureReason    string                 `json:"failureReason,omitempty"`
	Diagnostics      []core.PhaseDiagnostic `json:"diagnostics,omitempty"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
	StartedAt        *time.Time             `json:"startedAt,omitempty"`
	CompletedAt      *time.Time             `json:"completedAt,omitempty"`
	FailedAt         *time.Time             `json:"failedAt,omitempty"`

	Extraction     *core.ExtractionOutput    `json:"extraction,omitempty"`
	Comparison     *core.ComparisonOutput    `json:"comparison,omitempty"`
	Timeline       *core.TimelineOutput      `json:"timeline,omitempty"`
	Contradictions *core.ContradictionOutput `json:"contradictions,omitempty"`
	Credibility    *core.CredibilityOutput   `json:"credibility,omitempty"`
}

// JobListResponse wraps a page of jobs.
type JobListResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Count int           `json:"count"`
}

func jobToResponse(job *core.AnalysisJob, withOutputs bool) JobResponse {
	resp := JobResponse{
		ID:               job.ID,
		CaseID:           job.CaseID,
		Status:           job.Status,
		SubPhase:         string(job.SubPhase),
		Progress:         job.Progress,
		TokensUsed:       job.TokensUsed,
		EstimatedCost:    job.EstimatedCost,
		ProcessingTimeMs: job.ProcessingTime.Milliseconds(),
		FailureReason:    job.FailureReason,
		Diagnostics:      job.Diagnostics,
		CreatedAt:        job.CreatedAt,
		UpdatedAt:        job.UpdatedAt,
		StartedAt:        job.StartedAt,
		CompletedAt:      job.CompletedAt,
		FailedAt:         job.FailedAt,
	}
	if withOutputs {
		resp.Extraction = job.Extraction
		resp.Comparison = job.Comparison
		resp.Timeline = job.Timeline
		resp.Contradictions = job.Contradictions
		resp.Credibility = job.Credibility
	}
	return resp
}

// handleGetJob returns a job with its phase checkpoints.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.GetJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, jobToResponse(job, true))
}

// handleGetCaseJob returns the job of a case with its phase checkpoints.
func (s *Server) handleGetCaseJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.GetJobByCase(r.Context(), chi.URLParam(r, "caseID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, jobToResponse(job, true))
}

// handleListJobs lists jobs in one status, oldest first. Checkpoints are
// omitted from list entries.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	status := core.JobQueued
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := core.ParseJobStatus(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = parsed
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	jobs, err := s.store.ListByStatus(r.Context(), status, limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := JobListResponse{Jobs: make([]JobResponse, 0, len(jobs))}
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, jobToResponse(job, false))
	}
	resp.Count = len(resp.Jobs)
	respondJSON(w, http.StatusOK, resp)
}

// handleEnqueue records a QUEUED job for the case. When an input loader is
// configured the case input is checked first, so a case without a claimant
// statement is rejected without touching the store.
func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")

	if s.loader != nil {
		in, err := s.loader.Load(r.Context(), caseID)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		if err := in.Validate(); err != nil {
			respondDomainError(w, err)
			return
		}
	}

	job, err := s.store.Enqueue(r.Context(), caseID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	s.logger.Info("case enqueued", "case_id", caseID, "job_id", job.ID)
	respondJSON(w, http.StatusAccepted, jobToResponse(job, false))
}
