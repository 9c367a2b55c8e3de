package analysis

import (
	"context"
	"time"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/logging"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/service"
)

// Usage is the token and cost accounting of one or more reasoning calls.
type Usage struct {
	Tokens  int
	CostUSD float64
}

// Add returns the sum of two usages.
func (u Usage) Add(o Usage) Usage {
	return Usage{Tokens: u.Tokens + o.Tokens, CostUSD: u.CostUSD + o.CostUSD}
}

// Caller sends rendered prompts to the reasoning service with a per-call
// timeout and bounded retries, and accounts for tokens and cost.
type Caller struct {
	service core.ReasoningService
	retry   *service.RetryPolicy
	costs   service.CostTable
	timeout time.Duration
	metrics *service.MetricsCollector
	logger  *logging.Logger
}

// CallerConfig configures a Caller.
type CallerConfig struct {
	Retry   *service.RetryPolicy
	Costs   service.CostTable
	Timeout time.Duration
	Metrics *service.MetricsCollector
	Logger  *logging.Logger
}

// NewCaller creates a caller around svc.
func NewCaller(svc core.ReasoningService, cfg CallerConfig) *Caller {
	if cfg.Retry == nil {
		cfg.Retry = service.DefaultRetryPolicy()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = service.NewMetricsCollector()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	return &Caller{
		service: svc,
		retry:   cfg.Retry,
		costs:   cfg.Costs,
		timeout: cfg.Timeout,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
}

// Call generates a response for the prompt on behalf of phase. A response
// replayed from the cache counts as zero tokens and zero cost, so usage
// reflects only what the provider billed.
func (c *Caller) Call(ctx context.Context, phase core.Phase, p service.Prompt) (string, Usage, error) {
	req := p.Request()

	var resp core.GenerateResponse
	attempt := func(ctx context.Context) error {
		callCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		start := time.Now()
		r, err := c.service.Generate(callCtx, req)
		rec := service.CallRecord{Duration: time.Since(start), Err: err}
		if err == nil {
			u := c.usage(p.Tier, r)
			rec.Cached, rec.CostUSD = r.Cached, u.CostUSD
			if !r.Cached {
				rec.TokensIn, rec.TokensOut = r.InputTokens, r.OutputTokens
			}
		}
		c.metrics.RecordCall(phase, rec)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}

	notify := func(n int, err error, delay time.Duration) {
		c.metrics.RecordRetry(phase)
		c.logger.Warn("retrying reasoning call",
			"phase", phase,
			"prompt", p.ID,
			"attempt", n,
			"delay", delay,
			"error", err,
		)
	}

	if err := c.retry.ExecuteWithNotify(ctx, attempt, notify); err != nil {
		return "", Usage{}, err
	}

	c.logger.Debug("reasoning call completed",
		"phase", phase,
		"prompt", p.ID,
		"model", resp.Model,
		"tokens_in", resp.InputTokens,
		"tokens_out", resp.OutputTokens,
		"cached", resp.Cached,
	)
	return resp.Text, c.usage(p.Tier, resp), nil
}

func (c *Caller) usage(tier core.QualityTier, r core.GenerateResponse) Usage {
	if r.Cached {
		return Usage{}
	}
	return Usage{
		Tokens:  r.TotalTokens(),
		CostUSD: c.costs.Cost(tier, r.InputTokens, r.OutputTokens),
	}
}
