// Package reasoning adapts hosted language model APIs to the
// core.ReasoningService port. Provider errors are mapped onto the domain
// error taxonomy so callers can tell retryable failures from fatal ones.
package reasoning

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

// Settings is the provider-independent configuration of a reasoning client.
type Settings struct {
	APIKey         string
	BaseURL        string
	FastModel      string
	ReasoningModel string
	FastMaxTokens  int
	DeepMaxTokens  int
}

// Model returns the model name configured for a tier.
func (s Settings) Model(tier core.QualityTier) string {
	if tier == core.TierReasoning {
		return s.ReasoningModel
	}
	return s.FastModel
}

// MaxTokens resolves the output token cap of a request.
func (s Settings) MaxTokens(req core.GenerateRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if req.Tier == core.TierReasoning && s.DeepMaxTokens > 0 {
		return s.DeepMaxTokens
	}
	if s.FastMaxTokens > 0 {
		return s.FastMaxTokens
	}
	return 4096
}

// Validate checks that credentials and models are present.
func (s Settings) Validate(provider string) error {
	if strings.TrimSpace(s.APIKey) == "" {
		return core.ErrConfiguration(core.CodeMissingCredentials,
			fmt.Sprintf("%s API key is not configured", provider))
	}
	if s.FastModel == "" || s.ReasoningModel == "" {
		return core.ErrConfiguration(core.CodeInvalidConfig,
			fmt.Sprintf("%s models must be configured for both tiers", provider))
	}
	return nil
}

// statusError maps an HTTP status from a provider onto a domain error.
func statusError(provider string, status int, message string) error {
	msg := fmt.Sprintf("%s returned %d", provider, status)
	if message != "" {
		msg += ": " + message
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return core.ErrAuth(msg).WithDetail("status", status)
	case status == http.StatusTooManyRequests:
		return core.ErrRateLimit(msg).WithDetail("status", status)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return core.ErrTimeout(msg).WithDetail("status", status)
	case status >= 500:
		// 529 (overloaded) lands here as well.
		return core.ErrExternal(core.CodeProviderFailed, msg, true).WithDetail("status", status)
	default:
		return core.ErrExternal(core.CodeProviderFailed, msg, false).WithDetail("status", status)
	}
}

// transportError maps a failed round trip onto a domain error.
func transportError(provider string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return core.ErrCancelled(provider + " call cancelled").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return core.ErrTimeout(provider + " call timed out").WithCause(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return core.ErrTimeout(provider + " call timed out").WithCause(err)
	}
	return core.ErrExternal(core.CodeNetwork, provider+" request failed", true).WithCause(err)
}

func malformed(provider, message string) error {
	return core.ErrExternal(core.CodeMalformedPayload, provider+": "+message, false)
}
