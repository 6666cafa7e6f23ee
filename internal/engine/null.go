package engine

import (
	"context"
	"strings"
)

// NullEmbeddingEngine produces deterministic vectors without any model
// process, for tests and for environments with no model artifacts
// configured. Each dimension is derived from a simple hash of the text
// and its dimension index, then the vector is left unnormalized —
// callers that need unit vectors normalize downstream, same as with a
// real engine's raw output.
type NullEmbeddingEngine struct {
	dims int
}

func NewNullEmbeddingEngine(dims int) *NullEmbeddingEngine {
	return &NullEmbeddingEngine{dims: dims}
}

func (e *NullEmbeddingEngine) Dimensions() int { return e.dims }

func (e *NullEmbeddingEngine) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = deterministicVector(text, e.dims)
	}
	return out, nil
}

func (e *NullEmbeddingEngine) Close() error { return nil }

func deterministicVector(text string, dims int) []float32 {
	v := make([]float32, dims)
	var h uint32 = 2166136261
	for i := range v {
		for _, b := range []byte(text) {
			h ^= uint32(b)
			h *= 16777619
		}
		h ^= uint32(i)
		v[i] = float32(h%2000)/1000 - 1
	}
	return v
}

// NullChatEngine echoes back a deterministic, truncated summary of its
// prompt instead of calling a model. Useful for exercising the RAG
// coordinator's prompt assembly without a chat model configured.
type NullChatEngine struct{}

func NewNullChatEngine() *NullChatEngine { return &NullChatEngine{} }

func (e *NullChatEngine) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	words := strings.Fields(prompt)
	limit := maxTokens
	if limit <= 0 || limit > len(words) {
		limit = len(words)
	}
	return strings.Join(words[:limit], " "), nil
}

func (e *NullChatEngine) Close() error { return nil }
