package core

import "fmt"

// Phase represents a stage of the case analysis pipeline. Phase values are
// also the sub-phase names reported while a job is PROCESSING.
type Phase string

const (
	// PhaseExtraction pulls facts (and, implicitly, claims) out of each
	// party's statement.
	PhaseExtraction Phase = "extracting_facts"

	// PhaseComparison splits facts into disputed and undisputed sets.
	PhaseComparison Phase = "comparing_facts"

	// PhaseTimeline reconstructs a merged chronology.
	PhaseTimeline Phase = "building_timeline"

	// PhaseContradictions finds incompatible claims between the parties.
	PhaseContradictions Phase = "detecting_contradictions"

	// PhaseCredibility scores each party's credibility.
	PhaseCredibility Phase = "scoring_credibility"
)

// Progress markers reported outside of a phase.
const (
	ProgressStarted   = "started"
	ProgressCompleted = "completed"
	ProgressFailed    = "failed"
)

// AllPhases returns all phases in execution order.
func AllPhases() []Phase {
	return []Phase{PhaseExtraction, PhaseComparison, PhaseTimeline, PhaseContradictions, PhaseCredibility}
}

// PhaseOrder returns the numeric order of a phase (0-indexed).
func PhaseOrder(p Phase) int {
	switch p {
	case PhaseExtraction:
		return 0
	case PhaseComparison:
		return 1
	case PhaseTimeline:
		return 2
	case PhaseContradictions:
		return 3
	case PhaseCredibility:
		return 4
	default:
		return -1
	}
}

// NextPhase returns the phase following the given phase.
// Returns empty string if current phase is the last.
func NextPhase(p Phase) Phase {
	switch p {
	case PhaseExtraction:
		return PhaseComparison
	case PhaseComparison:
		return PhaseTimeline
	case PhaseTimeline:
		return PhaseContradictions
	case PhaseContradictions:
		return PhaseCredibility
	default:
		return ""
	}
}

// ValidPhase checks if a phase string is valid.
func ValidPhase(p Phase) bool {
	return PhaseOrder(p) >= 0
}

// ParsePhase converts a string to a Phase with validation.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !ValidPhase(p) {
		return "", fmt.Errorf("invalid phase: %s", s)
	}
	return p, nil
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// Milestone is the fixed progress percentage reported once the phase is
// checkpointed. These are coarse markers, not a measure of work done.
func (p Phase) Milestone() int {
	switch p {
	case PhaseExtraction:
		return 20
	case PhaseComparison:
		return 40
	case PhaseTimeline:
		return 60
	case PhaseContradictions:
		return 80
	case PhaseCredibility:
		return 90
	default:
		return 0
	}
}

// Tier returns the reasoning quality tier used by the phase.
func (p Phase) Tier() QualityTier {
	switch p {
	case PhaseContradictions, PhaseCredibility:
		return TierReasoning
	default:
		return TierFast
	}
}

// Description returns a human-readable description of the phase.
func (p Phase) Description() string {
	switch p {
	case PhaseExtraction:
		return "Extract facts and claims from each party's statement"
	case PhaseComparison:
		return "Separate disputed from undisputed facts"
	case PhaseTimeline:
		return "Reconstruct the chronology of events"
	case PhaseContradictions:
		return "Detect contradictions between the parties"
	case PhaseCredibility:
		return "Score the credibility of each party"
	default:
		return "Unknown phase"
	}
}

// Milestones for the start and end of a run.
const (
	MilestoneStarted   = 10
	MilestoneCompleted = 100
)
