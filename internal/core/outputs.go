package core

import "fmt"

// ExtractionOutput is the checkpoint of the fact extraction phase. Claims are
// parsed alongside facts because they depend on them.
type ExtractionOutput struct {
	ClaimantFacts    []ExtractedFact `json:"claimantFacts"`
	RespondentFacts  []ExtractedFact `json:"respondentFacts"`
	ClaimantClaims   []ParsedClaim   `json:"claimantClaims"`
	RespondentClaims []ParsedClaim   `json:"respondentClaims"`
	TokensUsed       int             `json:"tokensUsed"`
}

// ComparisonOutput is the checkpoint of the fact comparison phase.
type ComparisonOutput struct {
	Disputed   []DisputedFact   `json:"disputedFacts"`
	Undisputed []UndisputedFact `json:"undisputedFacts"`
	TokensUsed int              `json:"tokensUsed"`
}

// TimelineOutput is the checkpoint of the timeline reconstruction phase.
type TimelineOutput struct {
	Events     []TimelineEvent `json:"events"`
	TokensUsed int             `json:"tokensUsed"`
}

// SeverityCounts tallies contradictions by severity.
type SeverityCounts struct {
	Major    int `json:"major"`
	Moderate int `json:"moderate"`
	Minor    int `json:"minor"`
}

// CountSeverities tallies contradictions by severity.
func CountSeverities(cs []Contradiction) SeverityCounts {
	var counts SeverityCounts
	for _, c := range cs {
		switch c.Severity {
		case SeverityMajor:
			counts.Major++
		case SeverityMinor:
			counts.Minor++
		default:
			counts.Moderate++
		}
	}
	return counts
}

// ContradictionOutput is the checkpoint of the contradiction detection phase.
type ContradictionOutput struct {
	Contradictions []Contradiction `json:"contradictions"`
	Summary        string          `json:"summary"`
	Counts         SeverityCounts  `json:"counts"`
	Score          float64         `json:"score"`
	TokensUsed     int             `json:"tokensUsed"`
}

// CredibilityOutput is the checkpoint of the credibility scoring phase.
type CredibilityOutput struct {
	Claimant   PartyCredibilityScore `json:"claimant"`
	Respondent PartyCredibilityScore `json:"respondent"`
	Comparison string                `json:"comparison,omitempty"`
	TokensUsed int                   `json:"tokensUsed"`
}

// EmptyExtraction returns the degraded extraction output.
func EmptyExtraction() ExtractionOutput {
	return ExtractionOutput{
		ClaimantFacts:    []ExtractedFact{},
		RespondentFacts:  []ExtractedFact{},
		ClaimantClaims:   []ParsedClaim{},
		RespondentClaims: []ParsedClaim{},
	}
}

// EmptyComparison returns the degraded comparison output.
func EmptyComparison() ComparisonOutput {
	return ComparisonOutput{Disputed: []DisputedFact{}, Undisputed: []UndisputedFact{}}
}

// EmptyTimeline returns the degraded timeline output.
func EmptyTimeline() TimelineOutput {
	return TimelineOutput{Events: []TimelineEvent{}}
}

// EmptyContradictions returns the degraded contradiction output.
func EmptyContradictions(summary string) ContradictionOutput {
	return ContradictionOutput{Contradictions: []Contradiction{}, Summary: summary}
}

// EmptyCredibility returns the degraded credibility output.
func EmptyCredibility() CredibilityOutput {
	return CredibilityOutput{
		Claimant:   EmptyPartyScore("Credibility could not be assessed"),
		Respondent: EmptyPartyScore("Credibility could not be assessed"),
	}
}

// EmptyPartyScore returns a zero score with the given reasoning.
func EmptyPartyScore(reasoning string) PartyCredibilityScore {
	return PartyCredibilityScore{
		Reasoning:  reasoning,
		Strengths:  []string{},
		Weaknesses: []string{},
	}
}

// Validate checks the extraction checkpoint schema.
func (o *ExtractionOutput) Validate() error {
	for _, facts := range [][]ExtractedFact{o.ClaimantFacts, o.RespondentFacts} {
		for i := range facts {
			if err := validateFact(&facts[i]); err != nil {
				return err
			}
		}
	}
	for _, claims := range [][]ParsedClaim{o.ClaimantClaims, o.RespondentClaims} {
		for _, c := range claims {
			if c.Description == "" {
				return fmt.Errorf("claim %q: empty description", c.ID)
			}
			if ParseClaimType(string(c.Type)) != c.Type {
				return fmt.Errorf("claim %q: invalid type %q", c.ID, c.Type)
			}
		}
	}
	return validateTokens(o.TokensUsed)
}

func validateFact(f *ExtractedFact) error {
	if f.Statement == "" {
		return fmt.Errorf("fact %q: empty statement", f.ID)
	}
	if ParseFactCategory(string(f.Category)) != f.Category {
		return fmt.Errorf("fact %q: invalid category %q", f.ID, f.Category)
	}
	return validateUnit("fact "+f.ID+" confidence", f.Confidence)
}

// Validate checks the comparison checkpoint schema.
func (o *ComparisonOutput) Validate() error {
	for _, d := range o.Disputed {
		if d.Topic == "" {
			return fmt.Errorf("disputed fact %q: empty topic", d.ID)
		}
		if err := validateUnit("disputed fact "+d.ID+" materiality", d.Materiality); err != nil {
			return err
		}
	}
	for _, u := range o.Undisputed {
		if u.Fact == "" {
			return fmt.Errorf("undisputed fact %q: empty fact", u.ID)
		}
		if err := validateUnit("undisputed fact "+u.ID+" materiality", u.Materiality); err != nil {
			return err
		}
	}
	return validateTokens(o.TokensUsed)
}

// Validate checks the timeline checkpoint schema.
func (o *TimelineOutput) Validate() error {
	for _, e := range o.Events {
		if e.Event == "" {
			return fmt.Errorf("timeline event %q: empty event", e.ID)
		}
		if ParseEventSource(string(e.Source)) != e.Source {
			return fmt.Errorf("timeline event %q: invalid source %q", e.ID, e.Source)
		}
	}
	return validateTokens(o.TokensUsed)
}

// Validate checks the contradiction checkpoint schema.
func (o *ContradictionOutput) Validate() error {
	for _, c := range o.Contradictions {
		if c.Topic == "" {
			return fmt.Errorf("contradiction %q: empty topic", c.ID)
		}
		if ParseSeverity(string(c.Severity)) != c.Severity {
			return fmt.Errorf("contradiction %q: invalid severity %q", c.ID, c.Severity)
		}
	}
	if err := validateUnit("contradiction score", o.Score); err != nil {
		return err
	}
	return validateTokens(o.TokensUsed)
}

// Validate checks the credibility checkpoint schema.
func (o *CredibilityOutput) Validate() error {
	for name, s := range map[string]PartyCredibilityScore{"claimant": o.Claimant, "respondent": o.Respondent} {
		if err := validateUnit(name+" overall", s.Overall); err != nil {
			return err
		}
		if s.Factors.Clamp() != s.Factors {
			return fmt.Errorf("%s factors out of range", name)
		}
	}
	return validateTokens(o.TokensUsed)
}

func validateUnit(field string, v float64) error {
	if Clamp01(v) != v {
		return fmt.Errorf("%s out of range: %v", field, v)
	}
	return nil
}

func validateTokens(n int) error {
	if n < 0 {
		return fmt.Errorf("negative token count: %d", n)
	}
	return nil
}

// PhaseOutcome is the explicit result of one phase worker: either the phase
// succeeded, or it degraded to its default Value and Diagnostic says why.
// Skipped phases succeed with their default value.
type PhaseOutcome[T any] struct {
	Succeeded  bool
	Skipped    bool
	Value      T
	Diagnostic string
}

// Succeeded builds a successful outcome.
func Succeeded[T any](v T) PhaseOutcome[T] {
	return PhaseOutcome[T]{Succeeded: true, Value: v}
}

// Skipped builds a skipped outcome carrying the phase default.
func Skipped[T any](v T, reason string) PhaseOutcome[T] {
	return PhaseOutcome[T]{Succeeded: true, Skipped: true, Value: v, Diagnostic: reason}
}

// Degraded builds a failed outcome carrying the phase default.
func Degraded[T any](v T, err error) PhaseOutcome[T] {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return PhaseOutcome[T]{Succeeded: false, Value: v, Diagnostic: msg}
}

// Record converts the outcome into its persisted form.
func (o PhaseOutcome[T]) Record(phase Phase) PhaseDiagnostic {
	return PhaseDiagnostic{
		Phase:     phase,
		Succeeded: o.Succeeded,
		Skipped:   o.Skipped,
		Message:   o.Diagnostic,
	}
}

// PhaseDiagnostic records how a phase ended so degraded phases can be
// counted separately from genuinely empty results.
type PhaseDiagnostic struct {
	Phase     Phase  `json:"phase"`
	Succeeded bool   `json:"succeeded"`
	Skipped   bool   `json:"skipped"`
	Message   string `json:"message,omitempty"`
}
