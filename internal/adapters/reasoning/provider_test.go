package reasoning

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/service"
)

func TestProviderErrors_RetryPolicy(t *testing.T) {
	policy := service.NewRetryPolicy(
		service.WithMaxAttempts(3),
		service.WithBaseDelay(time.Millisecond),
		service.WithMaxDelay(time.Millisecond),
		service.WithJitter(0),
	)

	tests := []struct {
		name      string
		err       error
		category  core.ErrorCategory
		wantCalls int
	}{
		{"429", statusError("openai", http.StatusTooManyRequests, "slow down"), core.ErrCatRateLimit, 3},
		{"500", statusError("openai", http.StatusInternalServerError, ""), core.ErrCatExternal, 3},
		{"503", statusError("anthropic", http.StatusServiceUnavailable, ""), core.ErrCatExternal, 3},
		{"529", statusError("anthropic", 529, "overloaded"), core.ErrCatExternal, 3},
		{"504", statusError("anthropic", http.StatusGatewayTimeout, ""), core.ErrCatTimeout, 3},
		{"connection refused", transportError("openai", errors.New("dial tcp: connection refused")), core.ErrCatExternal, 3},
		{"deadline", transportError("openai", context.DeadlineExceeded), core.ErrCatTimeout, 3},
		{"401", statusError("openai", http.StatusUnauthorized, "invalid key"), core.ErrCatAuth, 1},
		{"403", statusError("anthropic", http.StatusForbidden, ""), core.ErrCatAuth, 1},
		{"400", statusError("openai", http.StatusBadRequest, "max_tokens too large"), core.ErrCatExternal, 1},
		{"malformed", malformed("openai", "no choices in response"), core.ErrCatExternal, 1},
		{"cancelled", transportError("anthropic", context.Canceled), core.ErrCatCancelled, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := policy.Execute(context.Background(), func(context.Context) error {
				calls++
				return tt.err
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if got := core.GetCategory(err); got != tt.category {
				t.Errorf("category = %s, want %s", got, tt.category)
			}
		})
	}
}
