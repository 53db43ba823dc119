package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAICaller completes prompts through the OpenAI chat API.
type OpenAICaller struct {
	llm    *openai.LLM
	model  string
	aiName string
}

// NewOpenAICaller creates an OpenAI-backed caller. An empty model falls back
// to gpt-4o-mini; an empty aiName falls back to DefaultAIName.
func NewOpenAICaller(apiKey, model, aiName string) (*OpenAICaller, error) {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if aiName == "" {
		aiName = DefaultAIName
	}

	client, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	return &OpenAICaller{llm: client, model: model, aiName: aiName}, nil
}

// Complete renders the prompt and runs a single chat completion.
func (c *OpenAICaller) Complete(ctx context.Context, parts PromptParts) (string, error) {
	prompt, err := buildPrompt(c.aiName, parts)
	if err != nil {
		return "", collaboratorErr("openai completion", err)
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt(c.aiName)),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := c.llm.GenerateContent(ctx, content, llms.WithTemperature(0))
	if err != nil {
		log.Error().Err(err).Str("model", c.model).Msg("OpenAI completion failed")
		return "", collaboratorErr("openai completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", collaboratorErr("openai completion", fmt.Errorf("no choices in response"))
	}

	return resp.Choices[0].Content, nil
}
