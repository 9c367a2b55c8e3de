package reasoning

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

// RateLimited throttles calls to the wrapped service. One limiter is shared
// by every run in the process.
type RateLimited struct {
	next    core.ReasoningService
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a token bucket of rps calls per second.
func NewRateLimited(next core.ReasoningService, rps float64, burst int) *RateLimited {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Generate implements core.ReasoningService.
func (r *RateLimited) Generate(ctx context.Context, req core.GenerateRequest) (core.GenerateResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return core.GenerateResponse{}, transportError("rate limiter", ctx.Err())
		}
		// The wait would outlast the context deadline.
		return core.GenerateResponse{}, core.ErrRateLimit("local rate limit would exceed call deadline").WithCause(err)
	}
	return r.next.Generate(ctx, req)
}
