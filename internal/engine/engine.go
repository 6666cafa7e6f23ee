// Package engine defines the two model-backed capabilities the rest of
// the module treats as opaque: turning text into vectors, and turning a
// prompt into a completion. Concrete engines are process-pooled workers
// talking JSON lines over stdio (internal/ipc), generalized off the
// teacher's internal/models.WorkerEmbedRequest/WorkerEmbedResponse, which
// hardcoded one task type; here the same shape serves either task,
// selected by which engine constructor a caller uses.
package engine

import "context"

// EmbeddingEngine turns a batch of texts into fixed-dimension vectors,
// one per input text, in the same order.
type EmbeddingEngine interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// ChatEngine completes a prompt, budgeted to at most maxTokens of
// generated output.
type ChatEngine interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	Close() error
}

// embedRequest/embedResponse and chatRequest/chatResponse are the wire
// contract with a worker process, one JSON object per line.
type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Vectors [][]float32 `json:"vectors"`
	Error   string      `json:"error,omitempty"`
}

type chatRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

type chatResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}
