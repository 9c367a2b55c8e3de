package reasoning

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

// OpenAIClient calls an OpenAI-compatible chat completions API.
type OpenAIClient struct {
	settings Settings
	client   *openai.Client
}

// NewOpenAIClient creates an OpenAI client.
func NewOpenAIClient(settings Settings) (*OpenAIClient, error) {
	if err := settings.Validate("openai"); err != nil {
		return nil, err
	}
	clientConfig := openai.DefaultConfig(settings.APIKey)
	if settings.BaseURL != "" {
		clientConfig.BaseURL = settings.BaseURL
	}
	return &OpenAIClient{
		settings: settings,
		client:   openai.NewClientWithConfig(clientConfig),
	}, nil
}

// Generate implements core.ReasoningService.
func (c *OpenAIClient) Generate(ctx context.Context, req core.GenerateRequest) (core.GenerateResponse, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserPrompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.settings.Model(req.Tier),
		Messages:  messages,
		MaxTokens: c.settings.MaxTokens(req),
	})
	if err != nil {
		return core.GenerateResponse{}, openAIError(err)
	}

	if len(resp.Choices) == 0 {
		return core.GenerateResponse{}, malformed("openai", "response has no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return core.GenerateResponse{}, malformed("openai", "response has no text content")
	}

	return core.GenerateResponse{
		Text:         text,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Model:        resp.Model,
	}, nil
}

func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError("openai", apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return statusError("openai", reqErr.HTTPStatusCode, "")
	}
	return transportError("openai", err)
}
