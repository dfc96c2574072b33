package factory

import (
	"fmt"

	"screening-bot-be/pkg/llm"
	"screening-bot-be/pkg/llm/gemini"
	"screening-bot-be/pkg/llm/huggingface"
	"screening-bot-be/pkg/llm/ollama"
)

const (
	ProviderOllama      = "ollama"
	ProviderHuggingFace = "huggingface"
	ProviderGemini      = "gemini"
)

// Endpoints carries base URLs and credentials for every provider kind.
type Endpoints struct {
	OllamaBaseURL      string
	HuggingFaceBaseURL string
	HuggingFaceToken   string
	GeminiBaseURL      string
	GeminiAPIKey       string
}

func NewLLMProvider(providerType, modelName string, ep Endpoints) (llm.LLMProvider, error) {
	switch providerType {
	case ProviderOllama:
		baseURL := ep.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case ProviderHuggingFace:
		return huggingface.NewHuggingFaceProvider(ep.HuggingFaceToken, ep.HuggingFaceBaseURL, modelName), nil
	case ProviderGemini:
		return gemini.NewGeminiProvider(ep.GeminiAPIKey, ep.GeminiBaseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}

// NewStreamingProvider only accepts provider kinds with an incremental mode.
func NewStreamingProvider(providerType, modelName string, ep Endpoints) (llm.StreamingProvider, error) {
	switch providerType {
	case ProviderOllama:
		baseURL := ep.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case ProviderHuggingFace:
		return huggingface.NewHuggingFaceProvider(ep.HuggingFaceToken, ep.HuggingFaceBaseURL, modelName), nil
	default:
		return nil, fmt.Errorf("LLM provider %s cannot stream", providerType)
	}
}
