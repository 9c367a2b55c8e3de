package analysis

import (
	"context"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/parse"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/service"
)

// FactComparator separates disputed from undisputed facts.
type FactComparator struct {
	caller  *Caller
	prompts *service.PromptRenderer
}

// NewFactComparator creates a fact comparator.
func NewFactComparator(caller *Caller, prompts *service.PromptRenderer) *FactComparator {
	return &FactComparator{caller: caller, prompts: prompts}
}

// Compare classifies the parties' facts. It is skipped unless both parties
// have facts; with one side only there is nothing to dispute or agree on.
func (c *FactComparator) Compare(ctx context.Context, caseCtx string, claimantFacts, respondentFacts []core.ExtractedFact) (core.PhaseOutcome[core.ComparisonOutput], Usage) {
	if len(claimantFacts) == 0 {
		return core.Skipped(core.EmptyComparison(), "no claimant facts to compare"), Usage{}
	}
	if len(respondentFacts) == 0 {
		return core.Skipped(core.EmptyComparison(), "no respondent facts to compare"), Usage{}
	}

	p, err := c.prompts.RenderFactComparison(service.FactComparisonParams{
		CaseContext:     caseCtx,
		ClaimantFacts:   claimantFacts,
		RespondentFacts: respondentFacts,
	})
	if err != nil {
		return core.Degraded(core.EmptyComparison(), err), Usage{}
	}

	text, usage, err := c.caller.Call(ctx, core.PhaseComparison, p)
	if err != nil {
		return core.Degraded(core.EmptyComparison(), err), Usage{}
	}

	out, err := parse.Comparison(text)
	if err != nil {
		return core.Degraded(core.EmptyComparison(), err), Usage{}
	}
	out.TokensUsed = usage.Tokens
	return core.Succeeded(out), usage
}
