package out

import (
	"context"
	"fmt"
	"strings"

	relevanceout "lockin/internal/modules/relevance/port/out"
	"lockin/internal/platform/config"
)

// NewConfiguredEmbedder wraps the configured provider in a lazy, cached embedder.
// Nothing is loaded or dialed until the first Embed call.
func NewConfiguredEmbedder(cfg config.EmbedderConfig) (*LazyEmbedder, error) {
	provider := strings.ToLower(cfg.Provider)
	var load Loader
	switch provider {
	case "", "hash":
		provider = "hash"
		load = func(context.Context) (relevanceout.Embedder, error) {
			return NewHashEmbedder(cfg.Dimensions), nil
		}
	case "ollama":
		load = func(context.Context) (relevanceout.Embedder, error) {
			return NewOllamaEmbedder(cfg.OllamaEndpoint, cfg.OllamaModel), nil
		}
	case "genai":
		load = func(ctx context.Context) (relevanceout.Embedder, error) {
			return NewGenAIEmbedder(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
		}
	case "plugin":
		load = func(ctx context.Context) (relevanceout.Embedder, error) {
			return StartPluginEmbedder(ctx, cfg.PluginBinary)
		}
	default:
		return nil, fmt.Errorf("unsupported embedder provider %q", cfg.Provider)
	}
	return NewLazyEmbedder(provider, cfg.CacheSize, load)
}
