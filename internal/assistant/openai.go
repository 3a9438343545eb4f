package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// openAIClient talks to any OpenAI-compatible chat endpoint through
// langchaingo.
type openAIClient struct {
	llm     llms.Model
	limiter *rate.Limiter
}

func newOpenAIClient(cfg Config) (*openAIClient, error) {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	opts := []openai.Option{
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
		openai.WithToken(cfg.APIKey),
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}
	return &openAIClient{llm: llm, limiter: cfg.limiter()}, nil
}

func (o *openAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}
	text, err := llms.GenerateFromSinglePrompt(ctx, o.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
