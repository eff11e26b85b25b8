package out

import "context"

// Embedder turns text into a pooled, normalized vector. Identical input yields
// identical output.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Name() string
}
