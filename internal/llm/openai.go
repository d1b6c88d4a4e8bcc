package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIProvider implements Provider against any OpenAI-compatible endpoint
// (OpenAI itself, OpenRouter, a local gateway)
type OpenAIProvider struct {
	model *openai.LLM
}

func NewOpenAIProvider(apiKey, model, baseURL string) (*OpenAIProvider, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	return &OpenAIProvider{model: client}, nil
}

func (p *OpenAIProvider) Infer(ctx context.Context, text string, conv ConversationContext) (*Guess, error) {
	prompt := BuildIntentPrompt(text, conv)

	// Low temperature for consistent classification
	content, err := llms.GenerateFromSinglePrompt(ctx, p.model, prompt,
		llms.WithTemperature(0.1),
		llms.WithMaxTokens(512),
	)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}

	guess, err := ParseGuess(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	return guess, nil
}
