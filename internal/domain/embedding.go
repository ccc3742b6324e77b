package domain

import "context"

// EmbeddingDimensions is the vector length produced by the default embedding model.
const EmbeddingDimensions = 384

// BatchEmbedder vectorizes multiple texts in one logical operation.
// The returned vectors are parallel in length and order to the input.
// A partial result is never valid: any underlying failure fails the whole call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// BatchEmbeddingResult carries embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// Generator is the text-generation collaborator contract. The retrieval core
// hands it a system instruction and a synthesized prompt and does not
// interpret the returned text.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (GenerationResult, error)
}

// GenerationResult carries the generated answer and token usage.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// HealthChecker verifies collaborator availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
