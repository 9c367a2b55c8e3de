package analysis

import (
	"context"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/parse"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/service"
)

// TimelineBuilder reconstructs the chronology of the dispute.
type TimelineBuilder struct {
	caller  *Caller
	prompts *service.PromptRenderer
}

// NewTimelineBuilder creates a timeline builder.
func NewTimelineBuilder(caller *Caller, prompts *service.PromptRenderer) *TimelineBuilder {
	return &TimelineBuilder{caller: caller, prompts: prompts}
}

// Build merges the service timeline with the deterministic one. When the
// service call fails the outcome is degraded but still carries the
// deterministic timeline.
func (b *TimelineBuilder) Build(ctx context.Context, caseCtx string, extraction core.ExtractionOutput, evidence []core.EvidenceSummary) (core.PhaseOutcome[core.TimelineOutput], Usage) {
	derived := DeterministicTimeline(extraction, evidence)
	fallback := core.TimelineOutput{Events: MergeTimeline(derived)}

	facts := make([]core.ExtractedFact, 0, len(extraction.ClaimantFacts)+len(extraction.RespondentFacts))
	facts = append(facts, extraction.ClaimantFacts...)
	facts = append(facts, extraction.RespondentFacts...)
	if len(facts) == 0 && len(evidence) == 0 {
		return core.Skipped(fallback, "no facts or evidence to place on a timeline"), Usage{}
	}

	p, err := b.prompts.RenderTimeline(service.TimelineParams{
		CaseContext: caseCtx,
		Facts:       facts,
		Evidence:    evidence,
	})
	if err != nil {
		return core.Degraded(fallback, err), Usage{}
	}

	text, usage, err := b.caller.Call(ctx, core.PhaseTimeline, p)
	if err != nil {
		return core.Degraded(fallback, err), Usage{}
	}

	events, err := parse.Timeline(text)
	if err != nil {
		return core.Degraded(fallback, err), Usage{}
	}
	return core.Succeeded(core.TimelineOutput{
		Events:     MergeTimeline(events, derived),
		TokensUsed: usage.Tokens,
	}), usage
}
