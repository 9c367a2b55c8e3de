package analysis

import (
	"fmt"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

// contradictionSaturation is the severity-weighted total at which the
// contradiction score reaches 1.
const contradictionSaturation = 5.0

// ContradictionScore weights each contradiction by severity (major 1.0,
// moderate 0.5, minor 0.2) and normalizes the sum into [0,1].
func ContradictionScore(cs []core.Contradiction) float64 {
	var sum float64
	for _, c := range cs {
		sum += c.Severity.Weight()
	}
	score := sum / contradictionSaturation
	if score > 1 {
		return 1
	}
	return score
}

// Credibility factor weights. They sum to 1.
const (
	weightEvidenceSupport     = 0.30
	weightInternalConsistency = 0.20
	weightExternalConsistency = 0.20
	weightSpecificity         = 0.15
	weightPlausibility        = 0.15
)

// WeightedCredibility combines the five factors into an overall score.
func WeightedCredibility(f core.CredibilityFactors) float64 {
	f = f.Clamp()
	return core.Clamp01(f.EvidenceSupport*weightEvidenceSupport +
		f.InternalConsistency*weightInternalConsistency +
		f.ExternalConsistency*weightExternalConsistency +
		f.Specificity*weightSpecificity +
		f.Plausibility*weightPlausibility)
}

// SummarizeContradictions builds the summary used when the service does not
// provide one.
func SummarizeContradictions(cs []core.Contradiction) string {
	if len(cs) == 0 {
		return "No contradictions detected between the parties' accounts."
	}
	counts := core.CountSeverities(cs)
	noun := "contradictions"
	if len(cs) == 1 {
		noun = "contradiction"
	}
	return fmt.Sprintf("Detected %d %s (%d major, %d moderate, %d minor).",
		len(cs), noun, counts.Major, counts.Moderate, counts.Minor)
}
