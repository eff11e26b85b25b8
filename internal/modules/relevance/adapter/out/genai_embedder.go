package out

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"lockin/internal/modules/relevance/domain"
	relevanceout "lockin/internal/modules/relevance/port/out"
)

const taskSemanticSimilarity = "SEMANTIC_SIMILARITY"

// GenAIEmbedder uses the Gemini embeddings API.
type GenAIEmbedder struct {
	client *genai.Client
	model  string
}

var _ relevanceout.Embedder = (*GenAIEmbedder)(nil)

func NewGenAIEmbedder(ctx context.Context, apiKey, model string) (*GenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai embedder needs an API key")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIEmbedder{client: client, model: model}, nil
}

func (e *GenAIEmbedder) Name() string {
	return "genai:" + e.model
}

func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: taskSemanticSimilarity,
	})
	if err != nil {
		return nil, fmt.Errorf("genai embed: %w", err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("genai returned no embeddings")
	}
	return domain.Normalize(result.Embeddings[0].Values), nil
}
