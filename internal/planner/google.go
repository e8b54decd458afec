package planner

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	googleoption "google.golang.org/api/option"
)

// googleProvider backs Provider with the Gemini API. Only the key is held;
// each Complete call builds a short-lived genai.Client under the caller's
// context and closes it before returning.
type googleProvider struct {
	key   string
	model string
}

func newGoogleProvider(model string) (Provider, error) {
	key := os.Getenv("GOOGLE_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("planner: GOOGLE_API_KEY is not set")
	}
	return &googleProvider{key: key, model: model}, nil
}

func (p *googleProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	client, err := genai.NewClient(ctx, googleoption.WithAPIKey(p.key))
	if err != nil {
		return "", fmt.Errorf("google: create client: %w", err)
	}
	defer client.Close()

	resp, err := p.configure(client, systemPrompt, maxTokens, temperature).
		GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("google: generate: %w", err)
	}

	var out strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				out.WriteString(string(t))
			}
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("google: empty completion")
	}
	return out.String(), nil
}

func (p *googleProvider) configure(client *genai.Client, systemPrompt string, maxTokens int, temperature float64) *genai.GenerativeModel {
	m := client.GenerativeModel(p.model)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	limit := int32(maxTokens)
	m.MaxOutputTokens = &limit
	temp := float32(temperature)
	m.Temperature = &temp
	// JSON response mode keeps the reply free of markdown fences.
	m.ResponseMIMEType = "application/json"
	return m
}
