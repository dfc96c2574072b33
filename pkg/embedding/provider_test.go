package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProviderNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)
		assert.Equal(t, "I feel tired", req.Prompt)
		fmt.Fprint(w, `{"embedding":[3,4]}`)
	}))
	defer srv.Close()

	resp, err := NewOllamaProvider(srv.URL, "").Generate(context.Background(), "I feel tired", TaskTypeRetrievalQuery)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, resp.Embedding.Values, 1e-6)
}

func TestGeminiProviderSendsTaskType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/text-embedding-004:embedContent", r.URL.Path)
		var req geminiEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, TaskTypeRetrievalDocument, req.TaskType)
		fmt.Fprint(w, `{"embedding":{"values":[0,2]}}`)
	}))
	defer srv.Close()

	p := NewGeminiProvider("key").(*GeminiProvider)
	p.BaseURL = srv.URL

	resp, err := p.Generate(context.Background(), "question", TaskTypeRetrievalDocument)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0, 1}, resp.Embedding.Values, 1e-6)
}

func TestEmbedderReturnsVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"embedding":[1,0]}`)
	}))
	defer srv.Close()

	e := NewEmbedder(NewOllamaProvider(srv.URL, "all-minilm"), TaskTypeRetrievalQuery)
	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
}

func TestEmbedderRejectsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"embedding":[]}`)
	}))
	defer srv.Close()

	_, err := NewEmbedder(NewOllamaProvider(srv.URL, ""), TaskTypeRetrievalQuery).Embed(context.Background(), "x")
	assert.Error(t, err)
}

func TestNormalizeVector(t *testing.T) {
	out := NormalizeVector([]float32{1, 1, 1, 1})
	var sum float64
	for _, v := range out {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
	assert.Equal(t, []float32{0, 0}, NormalizeVector([]float32{0, 0}))
}

func TestPostJSONReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "slow down")
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "all-minilm").Generate(context.Background(), "hello", "")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, "ollama", statusErr.Provider)
	assert.Equal(t, "slow down", statusErr.Body)
}
