package reasoning

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

func testSettings(baseURL string) Settings {
	return Settings{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		FastModel:      "fast-model",
		ReasoningModel: "deep-model",
		FastMaxTokens:  100,
		DeepMaxTokens:  200,
	}
}

func TestAnthropicClient_Generate(t *testing.T) {
	var got anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s, want /v1/messages", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("anthropic-version = %q", r.Header.Get("anthropic-version"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{
			"model": "deep-model",
			"content": [{"type": "text", "text": " [] "}],
			"usage": {"input_tokens": 12, "output_tokens": 3}
		}`))
	}))
	defer server.Close()

	client, err := NewAnthropicClient(testSettings(server.URL), server.Client())
	if err != nil {
		t.Fatalf("NewAnthropicClient() error = %v", err)
	}

	resp, err := client.Generate(context.Background(), core.GenerateRequest{
		SystemPrompt: "system",
		UserPrompt:   "user",
		Tier:         core.TierReasoning,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Text != "[]" || resp.TotalTokens() != 15 || resp.Model != "deep-model" {
		t.Errorf("resp = %+v", resp)
	}
	if got.Model != "deep-model" || got.MaxTokens != 200 || got.System != "system" {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "user" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestAnthropicClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		category  core.ErrorCategory
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"type":"authentication_error","message":"bad key"}}`, core.ErrCatAuth, false},
		{"forbidden", http.StatusForbidden, `{}`, core.ErrCatAuth, false},
		{"rate limited", http.StatusTooManyRequests, `{}`, core.ErrCatRateLimit, true},
		{"overloaded", 529, `{}`, core.ErrCatExternal, true},
		{"server error", http.StatusInternalServerError, `oops`, core.ErrCatExternal, true},
		{"bad request", http.StatusBadRequest, `{}`, core.ErrCatExternal, false},
		{"malformed body", http.StatusOK, `not json`, core.ErrCatExternal, false},
		{"no text", http.StatusOK, `{"content": []}`, core.ErrCatExternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewAnthropicClient(testSettings(server.URL), server.Client())
			if err != nil {
				t.Fatalf("NewAnthropicClient() error = %v", err)
			}
			_, err = client.Generate(context.Background(), core.GenerateRequest{UserPrompt: "x"})
			if !core.IsCategory(err, tt.category) {
				t.Fatalf("category = %s, want %s (err %v)", core.GetCategory(err), tt.category, err)
			}
			if core.IsRetryable(err) != tt.retryable {
				t.Errorf("retryable = %v, want %v", core.IsRetryable(err), tt.retryable)
			}
		})
	}
}

func TestAnthropicClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client, err := NewAnthropicClient(testSettings(server.URL), server.Client())
	if err != nil {
		t.Fatalf("NewAnthropicClient() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Generate(ctx, core.GenerateRequest{UserPrompt: "x"})
	if !core.IsCategory(err, core.ErrCatTimeout) || !core.IsRetryable(err) {
		t.Fatalf("expected retryable timeout, got %v", err)
	}
}

func TestNewAnthropicClient_MissingKey(t *testing.T) {
	s := testSettings("")
	s.APIKey = ""
	if _, err := NewAnthropicClient(s, nil); !core.IsCategory(err, core.ErrCatConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSettings_MaxTokens(t *testing.T) {
	s := testSettings("")
	if got := s.MaxTokens(core.GenerateRequest{Tier: core.TierFast}); got != 100 {
		t.Errorf("fast = %d", got)
	}
	if got := s.MaxTokens(core.GenerateRequest{Tier: core.TierReasoning}); got != 200 {
		t.Errorf("reasoning = %d", got)
	}
	if got := s.MaxTokens(core.GenerateRequest{MaxTokens: 7}); got != 7 {
		t.Errorf("explicit = %d", got)
	}
	if got := (Settings{}).MaxTokens(core.GenerateRequest{}); got != 4096 {
		t.Errorf("fallback = %d", got)
	}
}
