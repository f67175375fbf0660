package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
)

// Requires a local Ollama instance. Set OLLAMA_BASE_URL to run.

func TestOllamaGenerate(t *testing.T) {
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		t.Skip("Skipping integration test: OLLAMA_BASE_URL not set")
	}
	model := os.Getenv("OLLAMA_LLM_MODEL")
	if model == "" {
		model = "gemma:2b"
	}

	provider := ollama.NewOllamaProvider(baseURL, model)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	response, err := provider.Generate(ctx, "Reply with the single word: pong")
	assert.NoError(t, err)
	assert.NotEmpty(t, response)
	t.Logf("Model response: %s", response)
}

func TestOllamaEmbedding(t *testing.T) {
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		t.Skip("Skipping integration test: OLLAMA_BASE_URL not set")
	}
	model := os.Getenv("OLLAMA_EMBED_MODEL")
	if model == "" {
		model = "nomic-embed-text"
	}

	provider := embedding.NewOllamaProvider(baseURL, model)

	resp, err := provider.Generate("Mitochondria produce ATP.", "RETRIEVAL_DOCUMENT")
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.Embedding.Values)
	t.Logf("Embedding dimensions: %d", len(resp.Embedding.Values))
}
