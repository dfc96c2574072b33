package embedding

import (
	"context"
	"fmt"
)

// Gemini task types. Other providers ignore them.
const (
	TaskTypeRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskTypeRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Vector is one embedding, unit length after normalization.
type Vector struct {
	Values []float32 `json:"values"`
}

// EmbeddingResponse mirrors the Gemini answer shape; the other providers
// convert into it.
type EmbeddingResponse struct {
	Embedding Vector `json:"embedding"`
}

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

// Embedder binds a provider to a task type and returns bare vectors.
type Embedder struct {
	provider EmbeddingProvider
	taskType string
}

func NewEmbedder(provider EmbeddingProvider, taskType string) *Embedder {
	return &Embedder{provider: provider, taskType: taskType}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.provider.Generate(ctx, text, e.taskType)
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}
	return resp.Embedding.Values, nil
}
