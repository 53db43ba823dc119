package knowledge

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// NewOpenAIEmbedder builds the embedding collaborator used for ingest and
// retrieval queries. An empty model falls back to text-embedding-3-small.
func NewOpenAIEmbedder(apiKey, model string) (embeddings.Embedder, error) {
	if model == "" {
		model = "text-embedding-3-small"
	}

	client, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}
