package events

import "time"

// Event type constants for analysis runs.
const (
	TypeAnalysisProgress  = "analysis.progress"
	TypeAnalysisCompleted = "analysis.completed"
	TypeAnalysisFailed    = "analysis.failed"
)

// AnalysisProgressEvent is emitted at every progress milestone of a run.
type AnalysisProgressEvent struct {
	BaseEvent
	Phase    string `json:"phase"`
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`
}

// NewAnalysisProgressEvent creates a new progress event.
func NewAnalysisProgressEvent(caseID, jobID, phase string, progress int, message string) AnalysisProgressEvent {
	return AnalysisProgressEvent{
		BaseEvent: NewBaseEvent(TypeAnalysisProgress, caseID, jobID),
		Phase:     phase,
		Progress:  progress,
		Message:   message,
	}
}

// AnalysisCompletedEvent is emitted when a run completes.
type AnalysisCompletedEvent struct {
	BaseEvent
	Duration       time.Duration `json:"duration"`
	TokensUsed     int           `json:"tokens_used"`
	EstimatedCost  float64       `json:"estimated_cost"`
	DegradedPhases []string      `json:"degraded_phases,omitempty"`
}

// NewAnalysisCompletedEvent creates a new completed event.
func NewAnalysisCompletedEvent(caseID, jobID string, duration time.Duration, tokens int, cost float64, degraded []string) AnalysisCompletedEvent {
	return AnalysisCompletedEvent{
		BaseEvent:      NewBaseEvent(TypeAnalysisCompleted, caseID, jobID),
		Duration:       duration,
		TokensUsed:     tokens,
		EstimatedCost:  cost,
		DegradedPhases: degraded,
	}
}

// AnalysisFailedEvent is emitted when a run fails.
type AnalysisFailedEvent struct {
	BaseEvent
	Phase string `json:"phase,omitempty"`
	Error string `json:"error"`
}

// NewAnalysisFailedEvent creates a new failed event.
func NewAnalysisFailedEvent(caseID, jobID, phase string, err error) AnalysisFailedEvent {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return AnalysisFailedEvent{
		BaseEvent: NewBaseEvent(TypeAnalysisFailed, caseID, jobID),
		Phase:     phase,
		Error:     msg,
	}
}
