// Package embedder provides text embedding clients speaking the Ollama and
// OpenAI-compatible HTTP APIs.
package embedder

import "context"

// Embedder converts text into fixed-dimension vectors.
type Embedder interface {
	// Embed returns the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one embedding per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector size this embedder produces.
	Dimensions() int

	// Ping verifies the backend is reachable and the model is available.
	Ping(ctx context.Context) error

	Close() error
}
