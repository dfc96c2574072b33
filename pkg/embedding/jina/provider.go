package jina

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"screening-bot-be/pkg/embedding"
)

type JinaProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Object    string    `json:"object"`
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

var _ embedding.EmbeddingProvider = (*JinaProvider)(nil)

func NewJinaProvider(apiKey string) *JinaProvider {
	return &JinaProvider{
		apiKey:  apiKey,
		baseURL: "https://api.jina.ai/v1/embeddings",
		model:   "jina-embeddings-v2-base-en",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL points the provider at another endpoint (self-hosted gateway, tests).
func (p *JinaProvider) WithBaseURL(baseURL string) *JinaProvider {
	p.baseURL = baseURL
	return p
}

// Generate embeds a single text. Jina has no task types, so taskType is ignored.
func (p *JinaProvider) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	req := embeddingRequest{
		Model: p.model,
		Input: []string{text},
	}
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}

	var res embeddingResponse
	if err := embedding.PostJSON(ctx, p.client, "jina", p.baseURL, headers, req, &res); err != nil {
		return nil, err
	}

	if res.Error != nil {
		return nil, fmt.Errorf("jina api returned error: %s", res.Error.Message)
	}
	if len(res.Data) == 0 {
		return nil, fmt.Errorf("empty embeddings from jina api")
	}

	return &embedding.EmbeddingResponse{
		Embedding: embedding.Vector{Values: embedding.NormalizeVector(res.Data[0].Embedding)},
	}, nil
}
