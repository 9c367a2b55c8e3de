// Package analysis runs the five-phase case analysis pipeline: fact
// extraction, fact comparison, timeline reconstruction, contradiction
// detection and credibility scoring. Each phase is checkpointed to the job
// store before the next one starts.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/config"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/events"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/logging"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/service"
)

// terminalSaveTimeout bounds the write of a FAILED job after the run
// context is gone.
const terminalSaveTimeout = 5 * time.Second

const skippedByRequest = "skipped by request"

// Options selects the phases of a run.
type Options struct {
	SkipExtraction     bool
	SkipComparison     bool
	SkipTimeline       bool
	SkipContradictions bool
	SkipCredibility    bool
	// Force takes over a job that is already PROCESSING.
	Force bool
}

func (o Options) skips(p core.Phase) bool {
	switch p {
	case core.PhaseExtraction:
		return o.SkipExtraction
	case core.PhaseComparison:
		return o.SkipComparison
	case core.PhaseTimeline:
		return o.SkipTimeline
	case core.PhaseContradictions:
		return o.SkipContradictions
	case core.PhaseCredibility:
		return o.SkipCredibility
	default:
		return false
	}
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Store     core.JobStore
	Reasoning core.ReasoningService
	// Prompts is created from the embedded templates when nil.
	Prompts *service.PromptRenderer
	Config  config.PipelineConfig
	Costs   config.CostsConfig
	// Events is optional.
	Events *events.EventBus
	Logger *logging.Logger
	Clock  func() time.Time
}

// Orchestrator runs analyses. It is safe for concurrent use; every run gets
// its own caller and metrics.
type Orchestrator struct {
	store     core.JobStore
	reasoning core.ReasoningService
	prompts   *service.PromptRenderer
	config    config.PipelineConfig
	costs     service.CostTable
	events    *events.EventBus
	logger    *logging.Logger
	now       func() time.Time
}

// NewOrchestrator creates an orchestrator. A missing reasoning service is
// reported by RunAnalysis, not here.
func NewOrchestrator(d Deps) (*Orchestrator, error) {
	if d.Store == nil {
		return nil, core.ErrConfiguration(core.CodeInvalidConfig, "job store is required")
	}
	if d.Prompts == nil {
		p, err := service.NewPromptRenderer()
		if err != nil {
			return nil, fmt.Errorf("loading prompts: %w", err)
		}
		d.Prompts = p
	}
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return &Orchestrator{
		store:     d.Store,
		reasoning: d.Reasoning,
		prompts:   d.Prompts,
		config:    d.Config,
		costs:     service.NewCostTable(d.Costs),
		events:    d.Events,
		logger:    d.Logger.WithComponent("orchestrator"),
		now:       d.Clock,
	}, nil
}

// RunAnalysis analyzes one case. A Go error is returned only for invalid
// input, missing configuration or a job already in flight, all detected
// before any phase runs. Any later failure yields a FAILED result and a nil
// error; degraded phases still complete the run.
func (o *Orchestrator) RunAnalysis(ctx context.Context, in *core.AnalysisInput, opts Options, progress core.ProgressFunc) (*core.AnalysisResult, error) {
	if in == nil {
		return nil, core.ErrInput(core.CodeInvalidInput, "analysis input is required")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := o.validateReasoning(); err != nil {
		return nil, err
	}

	r := o.newRun(in, opts, progress)

	job, err := o.store.GetOrCreate(ctx, in.CaseID, opts.Force)
	if err != nil {
		if core.IsCategory(err, core.ErrCatConflict) {
			return nil, err
		}
		return r.fail(ctx, "", fmt.Errorf("loading job: %w", err)), nil
	}
	r.bindJob(job.ID)

	if err := o.store.MarkProcessing(ctx, job.ID, opts.Force); err != nil {
		if core.IsCategory(err, core.ErrCatConflict) {
			return nil, err
		}
		return r.fail(ctx, "", fmt.Errorf("marking job processing: %w", err)), nil
	}

	return r.execute(ctx), nil
}

func (o *Orchestrator) validateReasoning() error {
	if o.reasoning == nil {
		return core.ErrConfiguration(core.CodeNoReasoning, "no reasoning service configured")
	}
	v, ok := o.reasoning.(core.Validator)
	if !ok {
		return nil
	}
	if err := v.Validate(); err != nil {
		if core.IsCategory(err, core.ErrCatConfiguration) {
			return err
		}
		return core.ErrConfiguration(core.CodeInvalidConfig, "reasoning service is misconfigured").WithCause(err)
	}
	return nil
}

// run is the state of one RunAnalysis call.
type run struct {
	o        *Orchestrator
	in       *core.AnalysisInput
	opts     Options
	progress core.ProgressFunc
	logger   *logging.Logger
	metrics  *service.MetricsCollector
	caller   *Caller
	limits   StatementLimits
	caseCtx  string
	jobID    string
	start    time.Time

	result      *core.AnalysisResult
	usage       Usage
	diagnostics []core.PhaseDiagnostic

	extraction     core.ExtractionOutput
	comparison     core.ComparisonOutput
	timeline       core.TimelineOutput
	contradictions core.ContradictionOutput
	credibility    core.CredibilityOutput
}

func (o *Orchestrator) newRun(in *core.AnalysisInput, opts Options, progress core.ProgressFunc) *run {
	logger := o.logger.WithCase(in.CaseID)
	metrics := service.NewMetricsCollector()
	return &run{
		o:        o,
		in:       in,
		opts:     opts,
		progress: progress,
		logger:   logger,
		metrics:  metrics,
		caller: NewCaller(o.reasoning, CallerConfig{
			Retry:   service.RetryPolicyFromConfig(o.config.Retry),
			Costs:   o.costs,
			Timeout: o.config.CallTimeoutDuration(),
			Metrics: metrics,
			Logger:  logger,
		}),
		limits: StatementLimits{
			MinChars: o.config.MinStatementChars,
			MaxChars: o.config.MaxStatementChars,
		},
		caseCtx:        BuildCaseContext(in, o.config.MaxDescriptionChars),
		start:          o.now(),
		result:         core.NewAnalysisResult(in.CaseID, ""),
		diagnostics:    []core.PhaseDiagnostic{},
		extraction:     core.EmptyExtraction(),
		comparison:     core.EmptyComparison(),
		timeline:       core.EmptyTimeline(),
		contradictions: core.EmptyContradictions(""),
		credibility:    core.EmptyCredibility(),
	}
}

func (r *run) bindJob(jobID string) {
	r.jobID = jobID
	r.result.JobID = jobID
	r.logger = r.logger.WithJob(jobID)
}

// phaseStep runs one phase and stages its checkpoint.
type phaseStep struct {
	phase      core.Phase
	run        func(ctx context.Context) (core.PhaseDiagnostic, Usage)
	skip       func() core.PhaseDiagnostic
	checkpoint func(u *core.JobUpdate)
	apply      func(res *core.AnalysisResult)
}

func (r *run) steps() []phaseStep {
	return []phaseStep{
		{
			phase: core.PhaseExtraction,
			run:   r.extract,
			skip: func() core.PhaseDiagnostic {
				return core.Skipped(r.extraction, skippedByRequest).Record(core.PhaseExtraction)
			},
			checkpoint: func(u *core.JobUpdate) { v := r.extraction; u.Extraction = &v },
			apply:      func(res *core.AnalysisResult) { res.ApplyExtraction(r.extraction) },
		},
		{
			phase: core.PhaseComparison,
			run:   r.compare,
			skip: func() core.PhaseDiagnostic {
				return core.Skipped(r.comparison, skippedByRequest).Record(core.PhaseComparison)
			},
			checkpoint: func(u *core.JobUpdate) { v := r.comparison; u.Comparison = &v },
			apply:      func(res *core.AnalysisResult) { res.ApplyComparison(r.comparison) },
		},
		{
			phase: core.PhaseTimeline,
			run:   r.buildTimeline,
			skip: func() core.PhaseDiagnostic {
				return core.Skipped(r.timeline, skippedByRequest).Record(core.PhaseTimeline)
			},
			checkpoint: func(u *core.JobUpdate) { v := r.timeline; u.Timeline = &v },
			apply:      func(res *core.AnalysisResult) { res.ApplyTimeline(r.timeline) },
		},
		{
			phase: core.PhaseContradictions,
			run:   r.detectContradictions,
			skip: func() core.PhaseDiagnostic {
				return core.Skipped(r.contradictions, skippedByRequest).Record(core.PhaseContradictions)
			},
			checkpoint: func(u *core.JobUpdate) { v := r.contradictions; u.Contradictions = &v },
			apply:      func(res *core.AnalysisResult) { res.ApplyContradictions(r.contradictions) },
		},
		{
			phase: core.PhaseCredibility,
			run:   r.scoreCredibility,
			skip: func() core.PhaseDiagnostic {
				return core.Skipped(r.credibility, skippedByRequest).Record(core.PhaseCredibility)
			},
			checkpoint: func(u *core.JobUpdate) { v := r.credibility; u.Credibility = &v },
			apply:      func(res *core.AnalysisResult) { res.ApplyCredibility(r.credibility) },
		},
	}
}

func (r *run) execute(ctx context.Context) *core.AnalysisResult {
	r.metrics.StartRun()
	defer r.metrics.EndRun()

	startedAt := r.start.UTC()
	started := core.MilestoneStarted
	if err := r.o.store.UpdateJob(ctx, r.jobID, core.JobUpdate{StartedAt: &startedAt, Progress: &started}); err != nil {
		return r.fail(ctx, "", fmt.Errorf("recording run start: %w", err))
	}
	r.logger.Info("analysis started",
		"has_respondent", r.in.HasRespondent(),
		"evidence", len(r.in.Evidence),
	)
	r.report(core.ProgressStarted, core.MilestoneStarted, "Analysis started")

	for _, step := range r.steps() {
		if err := ctx.Err(); err != nil {
			return r.fail(ctx, step.phase, core.ErrCancelled("analysis cancelled").WithCause(err))
		}
		if err := r.runStep(ctx, step); err != nil {
			return r.fail(ctx, step.phase, err)
		}
	}
	return r.complete(ctx)
}

func (r *run) runStep(ctx context.Context, step phaseStep) error {
	phase := step.phase
	logger := r.logger.WithPhase(phase.String())

	sub := phase
	if err := r.o.store.UpdateJob(ctx, r.jobID, core.JobUpdate{SubPhase: &sub}); err != nil {
		return fmt.Errorf("recording phase %s: %w", phase, err)
	}

	var diag core.PhaseDiagnostic
	if r.opts.skips(phase) {
		diag = step.skip()
	} else {
		phaseStart := time.Now()
		var usage Usage
		diag, usage = step.run(ctx)
		r.usage = r.usage.Add(usage)
		logger.Debug("phase finished", "duration", time.Since(phaseStart), "tokens", usage.Tokens)
	}
	r.diagnostics = append(r.diagnostics, diag)
	r.metrics.RecordOutcome(diag)
	if !diag.Succeeded {
		logger.Warn("phase degraded", "reason", diag.Message)
	}

	milestone := phase.Milestone()
	tokens := r.usage.Tokens
	cost := r.usage.CostUSD
	u := core.JobUpdate{
		SubPhase:      &sub,
		Progress:      &milestone,
		TokensUsed:    &tokens,
		EstimatedCost: &cost,
		Diagnostics:   append([]core.PhaseDiagnostic(nil), r.diagnostics...),
	}
	step.checkpoint(&u)
	if err := r.o.store.UpdateJob(ctx, r.jobID, u); err != nil {
		return fmt.Errorf("checkpointing %s: %w", phase, err)
	}

	step.apply(r.result)
	r.report(phase.String(), milestone, phase.Description())
	return nil
}

func (r *run) extract(ctx context.Context) (core.PhaseDiagnostic, Usage) {
	facts := NewFactExtractor(r.caller, r.o.prompts, r.limits)
	claims := NewClaimParser(r.caller, r.o.prompts, r.limits)

	type partyResult struct {
		facts    core.PhaseOutcome[[]core.ExtractedFact]
		claims   core.PhaseOutcome[[]core.ParsedClaim]
		usage    Usage
		degraded []string
	}
	extractParty := func(ctx context.Context, party core.Party) partyResult {
		statement := r.in.Statement(party)
		var pr partyResult
		var u Usage
		pr.facts, u = facts.Extract(ctx, r.caseCtx, party, statement)
		pr.usage = pr.usage.Add(u)
		pr.claims, u = claims.Parse(ctx, r.caseCtx, party, r.in.ClaimItems(party), statement, pr.facts.Value)
		pr.usage = pr.usage.Add(u)
		for _, o := range []core.PhaseDiagnostic{pr.facts.Record(core.PhaseExtraction), pr.claims.Record(core.PhaseExtraction)} {
			if !o.Succeeded {
				pr.degraded = append(pr.degraded, o.Message)
			}
		}
		return pr
	}

	var claimant, respondent partyResult
	if r.o.config.ParallelExtraction {
		var g errgroup.Group
		g.Go(func() error { claimant = extractParty(ctx, core.PartyClaimant); return nil })
		g.Go(func() error { respondent = extractParty(ctx, core.PartyRespondent); return nil })
		_ = g.Wait()
	} else {
		claimant = extractParty(ctx, core.PartyClaimant)
		respondent = extractParty(ctx, core.PartyRespondent)
	}

	usage := claimant.usage.Add(respondent.usage)
	r.extraction = core.ExtractionOutput{
		ClaimantFacts:    claimant.facts.Value,
		RespondentFacts:  respondent.facts.Value,
		ClaimantClaims:   claimant.claims.Value,
		RespondentClaims: respondent.claims.Value,
		TokensUsed:       usage.Tokens,
	}

	degraded := make([]string, 0, len(claimant.degraded)+len(respondent.degraded))
	degraded = append(degraded, claimant.degraded...)
	degraded = append(degraded, respondent.degraded...)
	if len(degraded) > 0 {
		return core.PhaseDiagnostic{
			Phase:   core.PhaseExtraction,
			Message: strings.Join(degraded, "; "),
		}, usage
	}
	return core.Succeeded(r.extraction).Record(core.PhaseExtraction), usage
}

func (r *run) compare(ctx context.Context) (core.PhaseDiagnostic, Usage) {
	out, usage := NewFactComparator(r.caller, r.o.prompts).
		Compare(ctx, r.caseCtx, r.extraction.ClaimantFacts, r.extraction.RespondentFacts)
	r.comparison = out.Value
	return out.Record(core.PhaseComparison), usage
}

func (r *run) buildTimeline(ctx context.Context) (core.PhaseDiagnostic, Usage) {
	out, usage := NewTimelineBuilder(r.caller, r.o.prompts).
		Build(ctx, r.caseCtx, r.extraction, r.in.Evidence)
	r.timeline = out.Value
	return out.Record(core.PhaseTimeline), usage
}

func (r *run) detectContradictions(ctx context.Context) (core.PhaseDiagnostic, Usage) {
	out, usage := NewContradictionDetector(r.caller, r.o.prompts, r.limits).
		Detect(ctx, r.caseCtx, r.in, r.comparison)
	r.contradictions = out.Value
	return out.Record(core.PhaseContradictions), usage
}

func (r *run) scoreCredibility(ctx context.Context) (core.PhaseDiagnostic, Usage) {
	out, usage := NewCredibilityScorer(r.caller, r.o.prompts, r.limits).
		Score(ctx, r.caseCtx, r.in, r.extraction, r.contradictions)
	r.credibility = out.Value
	return out.Record(core.PhaseCredibility), usage
}

func (r *run) complete(ctx context.Context) *core.AnalysisResult {
	now := r.o.now()
	elapsed := now.Sub(r.start)
	completedAt := now.UTC()
	status := core.JobCompleted
	done := core.MilestoneCompleted
	tokens := r.usage.Tokens
	cost := r.usage.CostUSD

	err := r.o.store.UpdateJob(ctx, r.jobID, core.JobUpdate{
		Status:         &status,
		Progress:       &done,
		TokensUsed:     &tokens,
		EstimatedCost:  &cost,
		ProcessingTime: &elapsed,
		CompletedAt:    &completedAt,
	})
	if err != nil {
		return r.fail(ctx, "", fmt.Errorf("recording completion: %w", err))
	}

	r.finishResult(core.JobCompleted, elapsed)
	r.report(core.ProgressCompleted, core.MilestoneCompleted, "Analysis completed")

	degraded := make([]string, 0)
	for _, p := range r.result.DegradedPhases() {
		degraded = append(degraded, p.String())
	}
	if r.o.events != nil {
		r.o.events.PublishPriority(events.NewAnalysisCompletedEvent(r.in.CaseID, r.jobID, elapsed, tokens, cost, degraded))
	}

	m := r.metrics.GetRunMetrics()
	r.logger.Info("analysis completed",
		"duration", elapsed,
		"tokens", tokens,
		"cost_usd", cost,
		"calls", m.Calls,
		"calls_failed", m.CallsFailed,
		"retries", m.RetriesTotal,
		"cache_hits", m.CacheHits,
		"degraded", degraded,
	)
	return r.result
}

// fail marks the job FAILED and returns the terminal result. The FAILED
// write uses a context detached from cancellation so a cancelled run is
// still recorded.
func (r *run) fail(ctx context.Context, phase core.Phase, cause error) *core.AnalysisResult {
	now := r.o.now()
	elapsed := now.Sub(r.start)
	reason := cause.Error()

	r.logger.Error("analysis failed", "phase", phase, "error", cause)

	if r.jobID != "" {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalSaveTimeout)
		defer cancel()

		failedAt := now.UTC()
		status := core.JobFailed
		zero := 0
		tokens := r.usage.Tokens
		cost := r.usage.CostUSD
		err := r.o.store.UpdateJob(saveCtx, r.jobID, core.JobUpdate{
			Status:         &status,
			Progress:       &zero,
			TokensUsed:     &tokens,
			EstimatedCost:  &cost,
			ProcessingTime: &elapsed,
			FailedAt:       &failedAt,
			FailureReason:  &reason,
		})
		if err != nil {
			r.logger.Error("failed to record job failure", "error", err)
		}
	}

	r.finishResult(core.JobFailed, elapsed)
	r.result.Error = reason
	r.report(core.ProgressFailed, 0, reason)
	if r.o.events != nil {
		r.o.events.PublishPriority(events.NewAnalysisFailedEvent(r.in.CaseID, r.jobID, phase.String(), cause))
	}
	return r.result
}

func (r *run) finishResult(status core.JobStatus, elapsed time.Duration) {
	r.result.Status = status
	r.result.Diagnostics = append([]core.PhaseDiagnostic{}, r.diagnostics...)
	r.result.TokensUsed = r.usage.Tokens
	r.result.EstimatedCost = r.usage.CostUSD
	r.result.ProcessingTimeMs = elapsed.Milliseconds()
}

func (r *run) report(phase string, pct int, message string) {
	if r.progress != nil {
		r.progress(core.Progress{
			CaseID:   r.in.CaseID,
			JobID:    r.jobID,
			Phase:    phase,
			Progress: pct,
			Message:  message,
			At:       r.o.now(),
		})
	}
	if r.o.events != nil {
		r.o.events.Publish(events.NewAnalysisProgressEvent(r.in.CaseID, r.jobID, phase, pct, message))
	}
}
