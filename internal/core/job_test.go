package core

import (
	"strings"
	"testing"
	"time"
)

func TestAnalysisInput_Validate(t *testing.T) {
	in := &AnalysisInput{CaseID: "case-1", ClaimantStatement: "   "}
	err := in.Validate()
	if !IsCategory(err, ErrCatInput) {
		t.Fatalf("expected input error, got %v", err)
	}

	in.ClaimantStatement = "The goods never arrived."
	if err := in.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := (&AnalysisInput{ClaimantStatement: "x"}).Validate(); !IsCategory(err, ErrCatInput) {
		t.Fatalf("missing case id should be an input error, got %v", err)
	}
}

func TestNewAnalysisResult_FieldsPresent(t *testing.T) {
	r := NewAnalysisResult("case-1", "job-1")
	if r.ClaimantFacts == nil || r.RespondentFacts == nil || r.DisputedFacts == nil ||
		r.UndisputedFacts == nil || r.Timeline == nil || r.Contradictions == nil {
		t.Fatalf("phase fields must never be nil")
	}
	if r.Credibility.Claimant.Strengths == nil || r.Credibility.Respondent.Weaknesses == nil {
		t.Fatalf("credibility lists must never be nil")
	}
}

func TestJobUpdate_ApplyPartial(t *testing.T) {
	job := &AnalysisJob{ID: "job-1", Status: JobQueued, Progress: 0}
	status := JobProcessing
	progress := 40
	cmp := EmptyComparison()
	u := JobUpdate{Status: &status, Progress: &progress, Comparison: &cmp}
	u.Apply(job)

	if job.Status != JobProcessing || job.Progress != 40 || job.Comparison == nil {
		t.Fatalf("update not applied: %+v", job)
	}
	if job.Extraction != nil {
		t.Fatalf("untouched checkpoint should stay nil")
	}
}

func TestJobUpdate_ValidateRejectsBadCheckpoint(t *testing.T) {
	bad := ContradictionOutput{Contradictions: []Contradiction{{ID: "c1", Topic: "delivery", Severity: "catastrophic"}}}
	u := JobUpdate{Contradictions: &bad}
	err := u.Validate()
	if err == nil || !strings.Contains(err.Error(), "severity") {
		t.Fatalf("expected severity validation error, got %v", err)
	}

	progress := 140
	if err := (&JobUpdate{Progress: &progress}).Validate(); err == nil {
		t.Fatalf("expected progress range error")
	}
}

func TestAnalysisJob_ResetTransient(t *testing.T) {
	now := time.Now()
	ext := EmptyExtraction()
	job := &AnalysisJob{
		Status:        JobFailed,
		Progress:      60,
		TokensUsed:    900,
		FailureReason: "disk full",
		FailedAt:      &now,
		Extraction:    &ext,
	}
	job.ResetTransient(now)
	if job.Status != JobQueued || job.Progress != 0 || job.TokensUsed != 0 || job.FailureReason != "" || job.FailedAt != nil {
		t.Fatalf("transient fields not reset: %+v", job)
	}
	if job.Extraction == nil {
		t.Fatalf("checkpoints should survive a reset")
	}
}

func TestPhaseOutcome(t *testing.T) {
	ok := Succeeded(EmptyTimeline())
	if !ok.Succeeded || ok.Skipped {
		t.Fatalf("unexpected succeeded outcome: %+v", ok)
	}
	skipped := Skipped(EmptyComparison(), "no claimant facts")
	if !skipped.Succeeded || !skipped.Skipped {
		t.Fatalf("skipped outcome should count as succeeded")
	}
	degraded := Degraded(EmptyTimeline(), ErrParse(CodeInvalidJSON, "not json"))
	rec := degraded.Record(PhaseTimeline)
	if rec.Succeeded || rec.Phase != PhaseTimeline || rec.Message == "" {
		t.Fatalf("unexpected diagnostic: %+v", rec)
	}

	r := NewAnalysisResult("c", "j")
	r.Diagnostics = []PhaseDiagnostic{ok.Record(PhaseExtraction), rec}
	if got := r.DegradedPhases(); len(got) != 1 || got[0] != PhaseTimeline {
		t.Fatalf("DegradedPhases() = %v", got)
	}
}

func TestCountSeverities(t *testing.T) {
	counts := CountSeverities([]Contradiction{
		{Severity: SeverityMajor}, {Severity: SeverityMinor}, {Severity: SeverityMinor}, {Severity: SeverityModerate},
	})
	if counts != (SeverityCounts{Major: 1, Moderate: 1, Minor: 2}) {
		t.Fatalf("CountSeverities() = %+v", counts)
	}
}
