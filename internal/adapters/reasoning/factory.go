package reasoning

import (
	"net/http"
	"strings"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/config"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

// Supported provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// NewService builds the configured reasoning service, wrapped with the
// response cache and the process-wide rate limiter. A missing key or an
// unknown provider is a configuration error.
func NewService(cfg config.ReasoningConfig) (core.ReasoningService, error) {
	settings := Settings{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		FastModel:      cfg.Models.Fast,
		ReasoningModel: cfg.Models.Reasoning,
		FastMaxTokens:  cfg.MaxTokens.Fast,
		DeepMaxTokens:  cfg.MaxTokens.Reasoning,
	}

	var svc core.ReasoningService
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderAnthropic, "claude":
		client, err := NewAnthropicClient(settings, &http.Client{})
		if err != nil {
			return nil, err
		}
		svc = client
	case ProviderOpenAI:
		client, err := NewOpenAIClient(settings)
		if err != nil {
			return nil, err
		}
		svc = client
	case "":
		return nil, core.ErrConfiguration(core.CodeNoReasoning, "no reasoning provider configured")
	default:
		return nil, core.ErrConfiguration(core.CodeUnknownProvider,
			"unknown reasoning provider: "+cfg.Provider+" (supported: anthropic, openai)")
	}

	// Cache hits must not consume rate limit tokens.
	svc = NewRateLimited(svc, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	if cfg.Cache.Enabled {
		svc = NewCached(svc, cfg.Cache.TTLDuration())
	}
	return svc, nil
}
