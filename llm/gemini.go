package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// GeminiCaller completes prompts through the Gemini API. The client reads
// GEMINI_API_KEY from the environment.
type GeminiCaller struct {
	client *genai.Client
	model  string
	aiName string
}

// NewGeminiCaller creates a Gemini-backed caller.
func NewGeminiCaller(ctx context.Context, model, aiName string) (*GeminiCaller, error) {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if aiName == "" {
		aiName = DefaultAIName
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiCaller{client: client, model: model, aiName: aiName}, nil
}

// Complete renders the prompt and runs a single generation.
func (c *GeminiCaller) Complete(ctx context.Context, parts PromptParts) (string, error) {
	prompt, err := buildPrompt(c.aiName, parts)
	if err != nil {
		return "", collaboratorErr("gemini completion", err)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt(c.aiName), genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		log.Error().Err(err).Str("model", c.model).Msg("Gemini completion failed")
		return "", collaboratorErr("gemini completion", err)
	}

	text := result.Text()
	if text == "" {
		return "", collaboratorErr("gemini completion", fmt.Errorf("no text in response"))
	}

	return text, nil
}
