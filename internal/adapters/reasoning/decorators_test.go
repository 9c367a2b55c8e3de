package reasoning

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/config"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

type countingService struct {
	calls atomic.Int32
	err   error
}

func (s *countingService) Generate(_ context.Context, req core.GenerateRequest) (core.GenerateResponse, error) {
	s.calls.Add(1)
	if s.err != nil {
		return core.GenerateResponse{}, s.err
	}
	return core.GenerateResponse{Text: "echo:" + req.UserPrompt, InputTokens: 1, OutputTokens: 1}, nil
}

func TestCached_HitAndMiss(t *testing.T) {
	next := &countingService{}
	c := NewCached(next, time.Minute)
	ctx := context.Background()

	first, err := c.Generate(ctx, core.GenerateRequest{UserPrompt: "a"})
	if err != nil || first.Cached {
		t.Fatalf("first call: %+v, %v", first, err)
	}
	second, err := c.Generate(ctx, core.GenerateRequest{UserPrompt: "a"})
	if err != nil || !second.Cached || second.Text != first.Text {
		t.Fatalf("second call: %+v, %v", second, err)
	}
	if _, err := c.Generate(ctx, core.GenerateRequest{UserPrompt: "a", Tier: core.TierReasoning}); err != nil {
		t.Fatal(err)
	}
	if n := next.calls.Load(); n != 2 {
		t.Errorf("underlying calls = %d, want 2", n)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCached_ErrorsNotCached(t *testing.T) {
	next := &countingService{err: errors.New("boom")}
	c := NewCached(next, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := c.Generate(context.Background(), core.GenerateRequest{UserPrompt: "a"}); err == nil {
			t.Fatal("expected error")
		}
	}
	if n := next.calls.Load(); n != 2 {
		t.Errorf("underlying calls = %d, want 2", n)
	}
}

func TestRateLimited_CancelledContext(t *testing.T) {
	next := &countingService{}
	r := NewRateLimited(next, 0.001, 1)

	if _, err := r.Generate(context.Background(), core.GenerateRequest{}); err != nil {
		t.Fatalf("first call should use the burst token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := r.Generate(ctx, core.GenerateRequest{})
	if err == nil {
		t.Fatal("second call should not pass the limiter")
	}
	if !core.IsRetryable(err) {
		t.Errorf("limiter error should be retryable, got %v", err)
	}
	if n := next.calls.Load(); n != 1 {
		t.Errorf("underlying calls = %d, want 1", n)
	}
}

func TestNewService(t *testing.T) {
	base := config.ReasoningConfig{
		Provider:  "anthropic",
		APIKey:    "k",
		Models:    config.TierModels{Fast: "f", Reasoning: "r"},
		RateLimit: config.RateLimitConfig{RPS: 1, Burst: 1},
		Cache:     config.CacheConfig{Enabled: true, TTL: "1m"},
	}

	svc, err := NewService(base)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if _, ok := svc.(*Cached); !ok {
		t.Errorf("cache enabled: got %T, want *Cached", svc)
	}

	openAI := base
	openAI.Provider = "OpenAI"
	openAI.Cache.Enabled = false
	svc, err = NewService(openAI)
	if err != nil {
		t.Fatalf("NewService(openai) error = %v", err)
	}
	if _, ok := svc.(*RateLimited); !ok {
		t.Errorf("cache disabled: got %T, want *RateLimited", svc)
	}

	for name, mutate := range map[string]func(*config.ReasoningConfig){
		"unknown provider": func(c *config.ReasoningConfig) { c.Provider = "llama" },
		"no provider":      func(c *config.ReasoningConfig) { c.Provider = "" },
		"missing key":      func(c *config.ReasoningConfig) { c.APIKey = "" },
		"missing model":    func(c *config.ReasoningConfig) { c.Models.Reasoning = "" },
	} {
		cfg := base
		mutate(&cfg)
		if _, err := NewService(cfg); !core.IsCategory(err, core.ErrCatConfiguration) {
			t.Errorf("%s: expected configuration error, got %v", name, err)
		}
	}
}
