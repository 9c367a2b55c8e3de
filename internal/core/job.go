package core

import (
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of an analysis job.
type JobStatus string

const (
	JobQueued     JobStatus = "QUEUED"
	JobProcessing JobStatus = "PROCESSING"
	JobCompleted  JobStatus = "COMPLETED"
	JobFailed     JobStatus = "FAILED"
)

// ParseJobStatus converts a string to a JobStatus with validation.
func ParseJobStatus(s string) (JobStatus, error) {
	switch st := JobStatus(s); st {
	case JobQueued, JobProcessing, JobCompleted, JobFailed:
		return st, nil
	default:
		return "", fmt.Errorf("invalid job status: %s", s)
	}
}

// IsTerminal reports whether the status ends a run.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// AnalysisJob is the durable record of the analysis of one case. There is
// at most one job per case id.
type AnalysisJob struct {
	ID             string
	CaseID         string
	Status         JobStatus
	SubPhase       Phase
	Progress       int
	TokensUsed     int
	ProcessingTime time.Duration
	EstimatedCost  float64

	Extraction     *ExtractionOutput
	Comparison     *ComparisonOutput
	Timeline       *TimelineOutput
	Contradictions *ContradictionOutput
	Credibility    *CredibilityOutput
	Diagnostics    []PhaseDiagnostic

	CreatedAt     time.Time
	UpdatedAt     time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	FailedAt      *time.Time
	FailureReason string
}

// JobUpdate is a partial update of an AnalysisJob. Nil fields are left
// untouched.
type JobUpdate struct {
	Status         *JobStatus
	SubPhase       *Phase
	Progress       *int
	TokensUsed     *int
	ProcessingTime *time.Duration
	EstimatedCost  *float64

	Extraction     *ExtractionOutput
	Comparison     *ComparisonOutput
	Timeline       *TimelineOutput
	Contradictions *ContradictionOutput
	Credibility    *CredibilityOutput
	Diagnostics    []PhaseDiagnostic

	StartedAt     *time.Time
	CompletedAt   *time.Time
	FailedAt      *time.Time
	FailureReason *string
}

// Validate checks every checkpoint carried by the update.
func (u *JobUpdate) Validate() error {
	if u.Progress != nil && (*u.Progress < 0 || *u.Progress > 100) {
		return fmt.Errorf("progress out of range: %d", *u.Progress)
	}
	if u.Extraction != nil {
		if err := u.Extraction.Validate(); err != nil {
			return fmt.Errorf("extraction checkpoint: %w", err)
		}
	}
	if u.Comparison != nil {
		if err := u.Comparison.Validate(); err != nil {
			return fmt.Errorf("comparison checkpoint: %w", err)
		}
	}
	if u.Timeline != nil {
		if err := u.Timeline.Validate(); err != nil {
			return fmt.Errorf("timeline checkpoint: %w", err)
		}
	}
	if u.Contradictions != nil {
		if err := u.Contradictions.Validate(); err != nil {
			return fmt.Errorf("contradictions checkpoint: %w", err)
		}
	}
	if u.Credibility != nil {
		if err := u.Credibility.Validate(); err != nil {
			return fmt.Errorf("credibility checkpoint: %w", err)
		}
	}
	return nil
}

// Apply merges the update into the job in place.
func (u *JobUpdate) Apply(job *AnalysisJob) {
	if u.Status != nil {
		job.Status = *u.Status
	}
	if u.SubPhase != nil {
		job.SubPhase = *u.SubPhase
	}
	if u.Progress != nil {
		job.Progress = *u.Progress
	}
	if u.TokensUsed != nil {
		job.TokensUsed = *u.TokensUsed
	}
	if u.ProcessingTime != nil {
		job.ProcessingTime = *u.ProcessingTime
	}
	if u.EstimatedCost != nil {
		job.EstimatedCost = *u.EstimatedCost
	}
	if u.Extraction != nil {
		job.Extraction = u.Extraction
	}
	if u.Comparison != nil {
		job.Comparison = u.Comparison
	}
	if u.Timeline != nil {
		job.Timeline = u.Timeline
	}
	if u.Contradictions != nil {
		job.Contradictions = u.Contradictions
	}
	if u.Credibility != nil {
		job.Credibility = u.Credibility
	}
	if u.Diagnostics != nil {
		job.Diagnostics = u.Diagnostics
	}
	if u.StartedAt != nil {
		job.StartedAt = u.StartedAt
	}
	if u.CompletedAt != nil {
		job.CompletedAt = u.CompletedAt
	}
	if u.FailedAt != nil {
		job.FailedAt = u.FailedAt
	}
	if u.FailureReason != nil {
		job.FailureReason = *u.FailureReason
	}
}

// ResetTransient clears the per-run fields of a job before it is re-queued.
// Checkpoints from the previous run are kept until overwritten.
func (j *AnalysisJob) ResetTransient(now time.Time) {
	j.Status = JobQueued
	j.SubPhase = ""
	j.Progress = 0
	j.TokensUsed = 0
	j.ProcessingTime = 0
	j.EstimatedCost = 0
	j.Diagnostics = nil
	j.StartedAt = nil
	j.CompletedAt = nil
	j.FailedAt = nil
	j.FailureReason = ""
	j.UpdatedAt = now
}

// CredibilityScores pairs the two party scores.
type CredibilityScores struct {
	Claimant   PartyCredibilityScore `json:"claimant"`
	Respondent PartyCredibilityScore `json:"respondent"`
	Comparison string                `json:"comparison,omitempty"`
}

// AnalysisResult is the terminal, read-only snapshot returned to the caller.
// Every phase field is always present, possibly empty.
type AnalysisResult struct {
	CaseID              string            `json:"caseId"`
	JobID               string            `json:"jobId"`
	Status              JobStatus         `json:"status"`
	ClaimantFacts       []ExtractedFact   `json:"claimantFacts"`
	RespondentFacts     []ExtractedFact   `json:"respondentFacts"`
	ClaimantClaims      []ParsedClaim     `json:"claimantClaims"`
	RespondentClaims    []ParsedClaim     `json:"respondentClaims"`
	DisputedFacts       []DisputedFact    `json:"disputedFacts"`
	UndisputedFacts     []UndisputedFact  `json:"undisputedFacts"`
	Timeline            []TimelineEvent   `json:"timeline"`
	Contradictions      []Contradiction   `json:"contradictions"`
	ContradictionReport string            `json:"contradictionSummary"`
	ContradictionScore  float64           `json:"contradictionScore"`
	Credibility         CredibilityScores `json:"credibilityScores"`
	Diagnostics         []PhaseDiagnostic `json:"diagnostics"`
	TokensUsed          int               `json:"tokensUsed"`
	EstimatedCost       float64           `json:"estimatedCost"`
	ProcessingTimeMs    int64             `json:"processingTimeMs"`
	Error               string            `json:"error,omitempty"`
}

// NewAnalysisResult builds a result with every phase field set to its
// default value.
func NewAnalysisResult(caseID, jobID string) *AnalysisResult {
	extraction := EmptyExtraction()
	comparison := EmptyComparison()
	timeline := EmptyTimeline()
	contradictions := EmptyContradictions("")
	credibility := EmptyCredibility()
	r := &AnalysisResult{
		CaseID:      caseID,
		JobID:       jobID,
		Status:      JobProcessing,
		Diagnostics: []PhaseDiagnostic{},
	}
	r.ApplyExtraction(extraction)
	r.ApplyComparison(comparison)
	r.ApplyTimeline(timeline)
	r.ApplyContradictions(contradictions)
	r.ApplyCredibility(credibility)
	return r
}

// ApplyExtraction copies the extraction output into the result.
func (r *AnalysisResult) ApplyExtraction(o ExtractionOutput) {
	r.ClaimantFacts = nonNil(o.ClaimantFacts)
	r.RespondentFacts = nonNil(o.RespondentFacts)
	r.ClaimantClaims = nonNil(o.ClaimantClaims)
	r.RespondentClaims = nonNil(o.RespondentClaims)
}

// ApplyComparison copies the comparison output into the result.
func (r *AnalysisResult) ApplyComparison(o ComparisonOutput) {
	r.DisputedFacts = nonNil(o.Disputed)
	r.UndisputedFacts = nonNil(o.Undisputed)
}

// ApplyTimeline copies the timeline output into the result.
func (r *AnalysisResult) ApplyTimeline(o TimelineOutput) {
	r.Timeline = nonNil(o.Events)
}

// ApplyContradictions copies the contradiction output into the result.
func (r *AnalysisResult) ApplyContradictions(o ContradictionOutput) {
	r.Contradictions = nonNil(o.Contradictions)
	r.ContradictionReport = o.Summary
	r.ContradictionScore = o.Score
}

// ApplyCredibility copies the credibility output into the result.
func (r *AnalysisResult) ApplyCredibility(o CredibilityOutput) {
	r.Credibility = CredibilityScores{
		Claimant:   o.Claimant,
		Respondent: o.Respondent,
		Comparison: o.Comparison,
	}
}

// ExtractedFacts returns both parties' facts, claimant first.
func (r *AnalysisResult) ExtractedFacts() []ExtractedFact {
	all := make([]ExtractedFact, 0, len(r.ClaimantFacts)+len(r.RespondentFacts))
	all = append(all, r.ClaimantFacts...)
	return append(all, r.RespondentFacts...)
}

// DegradedPhases returns the phases that fell back to default output.
func (r *AnalysisResult) DegradedPhases() []Phase {
	var phases []Phase
	for _, d := range r.Diagnostics {
		if !d.Succeeded {
			phases = append(phases, d.Phase)
		}
	}
	return phases
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
