package analysis

import (
	"context"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/parse"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/service"
)

// Summaries used when contradiction detection does not run.
const (
	summaryNoRespondent = "No respondent statement was provided, so there is nothing to contradict."
	summaryNoDisputes   = "The parties' accounts contain no disputed facts."
	summaryUnavailable  = "Contradiction analysis could not be completed."
)

// ContradictionDetector finds incompatible claims between the parties.
type ContradictionDetector struct {
	caller  *Caller
	prompts *service.PromptRenderer
	limits  StatementLimits
}

// NewContradictionDetector creates a contradiction detector.
func NewContradictionDetector(caller *Caller, prompts *service.PromptRenderer, limits StatementLimits) *ContradictionDetector {
	return &ContradictionDetector{caller: caller, prompts: prompts, limits: limits}
}

// Detect is skipped when there is no respondent statement or nothing is
// disputed.
func (d *ContradictionDetector) Detect(ctx context.Context, caseCtx string, in *core.AnalysisInput, comparison core.ComparisonOutput) (core.PhaseOutcome[core.ContradictionOutput], Usage) {
	if !in.HasRespondent() {
		return core.Skipped(core.EmptyContradictions(summaryNoRespondent), "no respondent statement"), Usage{}
	}
	if len(comparison.Disputed) == 0 {
		return core.Skipped(core.EmptyContradictions(summaryNoDisputes), "no disputed facts"), Usage{}
	}

	p, err := d.prompts.RenderContradictions(service.ContradictionParams{
		CaseContext:         caseCtx,
		ClaimantStatement:   truncateText(in.ClaimantStatement, d.limits.MaxChars),
		RespondentStatement: truncateText(in.RespondentStatement, d.limits.MaxChars),
		Disputed:            comparison.Disputed,
	})
	if err != nil {
		return core.Degraded(core.EmptyContradictions(summaryUnavailable), err), Usage{}
	}

	text, usage, err := d.caller.Call(ctx, core.PhaseContradictions, p)
	if err != nil {
		return core.Degraded(core.EmptyContradictions(summaryUnavailable), err), Usage{}
	}

	set, err := parse.Contradictions(text)
	if err != nil {
		return core.Degraded(core.EmptyContradictions(summaryUnavailable), err), Usage{}
	}

	summary := set.Summary
	if summary == "" {
		summary = SummarizeContradictions(set.Contradictions)
	}
	return core.Succeeded(core.ContradictionOutput{
		Contradictions: set.Contradictions,
		Summary:        summary,
		Counts:         core.CountSeverities(set.Contradictions),
		Score:          ContradictionScore(set.Contradictions),
		TokensUsed:     usage.Tokens,
	}), usage
}
