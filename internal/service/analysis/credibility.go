package analysis

import (
	"context"
	"math"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/parse"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/service"
)

// Factors assumed for an unopposed claimant, where nothing can be compared.
const (
	unopposedInternalConsistency = 0.6
	unopposedExternalConsistency = 0.5
	unopposedPlausibility        = 0.6
	noFactsSpecificity           = 0.2
	evidenceSupportBase          = 0.2
	evidenceSupportStep          = 0.2
	evidenceSupportCap           = 0.9
)

const noRespondentReasoning = "No statement provided"

// CredibilityScorer assesses the credibility of each party.
type CredibilityScorer struct {
	caller  *Caller
	prompts *service.PromptRenderer
	limits  StatementLimits
}

// NewCredibilityScorer creates a credibility scorer.
func NewCredibilityScorer(caller *Caller, prompts *service.PromptRenderer, limits StatementLimits) *CredibilityScorer {
	return &CredibilityScorer{caller: caller, prompts: prompts, limits: limits}
}

// Score assesses both parties. Without a respondent statement the claimant
// is scored heuristically and no call is made.
func (s *CredibilityScorer) Score(ctx context.Context, caseCtx string, in *core.AnalysisInput, extraction core.ExtractionOutput, contradictions core.ContradictionOutput) (core.PhaseOutcome[core.CredibilityOutput], Usage) {
	if !in.HasRespondent() {
		out := core.CredibilityOutput{
			Claimant:   HeuristicCredibility(extraction.ClaimantFacts, in.Evidence),
			Respondent: core.EmptyPartyScore(noRespondentReasoning),
			Comparison: "Only the claimant submitted a statement; the claimant score is a heuristic estimate.",
		}
		o := core.Succeeded(out)
		o.Diagnostic = "no respondent statement, claimant scored heuristically"
		return o, Usage{}
	}

	p, err := s.prompts.RenderCredibility(service.CredibilityParams{
		CaseContext:         caseCtx,
		ClaimantStatement:   truncateText(in.ClaimantStatement, s.limits.MaxChars),
		RespondentStatement: truncateText(in.RespondentStatement, s.limits.MaxChars),
		ClaimantFacts:       extraction.ClaimantFacts,
		RespondentFacts:     extraction.RespondentFacts,
		Contradictions:      contradictions.Contradictions,
		Evidence:            in.Evidence,
	})
	if err != nil {
		return core.Degraded(core.EmptyCredibility(), err), Usage{}
	}

	text, usage, err := s.caller.Call(ctx, core.PhaseCredibility, p)
	if err != nil {
		return core.Degraded(core.EmptyCredibility(), err), Usage{}
	}

	a, err := parse.Credibility(text)
	if err != nil {
		return core.Degraded(core.EmptyCredibility(), err), Usage{}
	}
	return core.Succeeded(core.CredibilityOutput{
		Claimant:   finalScore(a.Claimant),
		Respondent: finalScore(a.Respondent),
		Comparison: a.Comparison,
		TokensUsed: usage.Tokens,
	}), usage
}

// finalScore uses the overall score the service gave, or the weighted sum of
// the factors when it gave none.
func finalScore(a parse.PartyAssessment) core.PartyCredibilityScore {
	score := a.Score
	score.Factors = score.Factors.Clamp()
	if a.Overall != nil {
		score.Overall = core.Clamp01(*a.Overall)
	} else {
		score.Overall = WeightedCredibility(score.Factors)
	}
	return score
}

// HeuristicCredibility scores a party from its facts and the evidence not
// submitted by the respondent.
func HeuristicCredibility(facts []core.ExtractedFact, evidence []core.EvidenceSummary) core.PartyCredibilityScore {
	n := 0
	for _, ev := range evidence {
		if ev.SubmittedBy != core.PartyRespondent {
			n++
		}
	}
	factors := core.CredibilityFactors{
		EvidenceSupport:     math.Min(evidenceSupportCap, evidenceSupportBase+evidenceSupportStep*float64(n)),
		InternalConsistency: unopposedInternalConsistency,
		ExternalConsistency: unopposedExternalConsistency,
		Specificity:         specificity(facts),
		Plausibility:        unopposedPlausibility,
	}

	score := core.EmptyPartyScore("Estimated from statement specificity and submitted evidence; no opposing account was available.")
	score.Factors = factors
	score.Overall = WeightedCredibility(factors)
	if n > 0 {
		score.Strengths = append(score.Strengths, "Supported by submitted evidence")
	} else {
		score.Weaknesses = append(score.Weaknesses, "No supporting evidence submitted")
	}
	return score
}

// specificity is the mean share of date, amount and evidence references
// across facts.
func specificity(facts []core.ExtractedFact) float64 {
	if len(facts) == 0 {
		return noFactsSpecificity
	}
	var total float64
	for _, f := range facts {
		points := 0
		if f.Date != "" {
			points++
		}
		if f.Amount != nil {
			points++
		}
		if len(f.SupportingEvidence) > 0 {
			points++
		}
		total += float64(points) / 3
	}
	return core.Clamp01(total / float64(len(facts)))
}
