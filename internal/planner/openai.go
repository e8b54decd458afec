package planner

import (
	"context"
	"fmt"
	"os"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// openaiProvider backs Provider with the OpenAI chat completions API. The
// system prompt travels as a system-role message rather than a dedicated
// field, so both prompts end up in the Messages slice.
type openaiProvider struct {
	client openai.Client
	model  shared.ChatModel
}

func newOpenAIProvider(model string) (Provider, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("planner: OPENAI_API_KEY is not set")
	}
	return &openaiProvider{
		client: openai.NewClient(option.WithAPIKey(key)),
		model:  shared.ChatModel(model),
	}, nil
}

func (p *openaiProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       p.model,
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(temperature),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	}
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: completion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: completion returned no choices")
	}
	if resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai: completion returned an empty message")
	}
	return resp.Choices[0].Message.Content, nil
}
