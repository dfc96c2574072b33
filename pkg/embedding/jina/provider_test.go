package jina

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJinaProviderGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer jina-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"data":[{"object":"embedding","index":0,"embedding":[0,5]}]}`)
	}))
	defer srv.Close()

	resp, err := NewJinaProvider("jina-key").WithBaseURL(srv.URL).Generate(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0, 1}, resp.Embedding.Values, 1e-6)
}

func TestJinaProviderApiError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[],"error":{"message":"quota exceeded"}}`)
	}))
	defer srv.Close()

	_, err := NewJinaProvider("k").WithBaseURL(srv.URL).Generate(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
