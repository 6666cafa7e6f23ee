package engine

import (
	"context"
	"fmt"

	"github.com/GonzoDMX/rag-anywhere/internal/errs"
	"github.com/GonzoDMX/rag-anywhere/internal/ipc"
	"github.com/GonzoDMX/rag-anywhere/internal/pool"
)

// ProcessConfig describes how to spawn one worker process and how many of
// them to keep warm. MaxUses bounds how many requests a context serves
// before it is torn down and rebuilt, per spec.md §4.G.3's use-count
// recycling (0 disables recycling).
type ProcessConfig struct {
	Spawner     ipc.Spawner
	NumContexts int
	MaxUses     int
}

// ProcessEmbeddingEngine is an EmbeddingEngine backed by a pool of
// worker processes, each leased for the duration of one Embed call.
type ProcessEmbeddingEngine struct {
	pool *pool.ContextPool[*ipc.WorkerProcess]
	dims int
}

// NewProcessEmbeddingEngine starts a ContextPool of workers per cfg.
// dims is the fixed embedding dimension the caller expects back; it is
// not discovered from the worker, since the kernel and store layers
// need it before the first request completes.
func NewProcessEmbeddingEngine(cfg ProcessConfig, dims int) *ProcessEmbeddingEngine {
	factory := func() (*ipc.WorkerProcess, error) {
		return ipc.Spawn(cfg.Spawner)
	}
	return &ProcessEmbeddingEngine{
		pool: pool.NewContextPool(cfg.NumContexts, cfg.MaxUses, factory),
		dims: dims,
	}
}

func (e *ProcessEmbeddingEngine) Dimensions() int { return e.dims }

func (e *ProcessEmbeddingEngine) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	lease, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.EngineError, "acquire embedding worker", err)
	}
	defer lease.Release()

	var resp embedResponse
	if err := lease.Item().Call(embedRequest{Texts: texts}, &resp); err != nil {
		return nil, errs.Wrap(errs.EngineError, "embedding worker call", err)
	}
	if resp.Error != "" {
		return nil, errs.New(errs.EngineError, fmt.Sprintf("embedding worker: %s", resp.Error))
	}
	if len(resp.Vectors) != len(texts) {
		return nil, errs.New(errs.EngineError, fmt.Sprintf("embedding worker returned %d vectors for %d inputs", len(resp.Vectors), len(texts)))
	}
	for _, v := range resp.Vectors {
		if len(v) != e.dims {
			return nil, errs.New(errs.DimensionMismatch, fmt.Sprintf("embedding worker returned dimension %d, want %d", len(v), e.dims))
		}
	}

	return resp.Vectors, nil
}

func (e *ProcessEmbeddingEngine) Close() error {
	e.pool.Close()
	return nil
}

// ProcessChatEngine is a ChatEngine backed by a small pool of worker
// processes holding loaded chat model contexts. Default wiring keeps
// CHAT_MAX_CONTEXTS (2, per original_source/tldr_cpp's ChatManager)
// contexts warm so concurrent queries don't serialize behind one model.
type ProcessChatEngine struct {
	pool *pool.ContextPool[*ipc.WorkerProcess]
}

func NewProcessChatEngine(cfg ProcessConfig) *ProcessChatEngine {
	factory := func() (*ipc.WorkerProcess, error) {
		return ipc.Spawn(cfg.Spawner)
	}
	return &ProcessChatEngine{
		pool: pool.NewContextPool(cfg.NumContexts, cfg.MaxUses, factory),
	}
}

func (e *ProcessChatEngine) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	lease, err := e.pool.Acquire(ctx)
	if err != nil {
		return "", errs.Wrap(errs.EngineError, "acquire chat worker", err)
	}
	defer lease.Release()

	var resp chatResponse
	req := chatRequest{Prompt: prompt, MaxTokens: maxTokens}
	if err := lease.Item().Call(req, &resp); err != nil {
		return "", errs.Wrap(errs.EngineError, "chat worker call", err)
	}
	if resp.Error != "" {
		return "", errs.New(errs.EngineError, fmt.Sprintf("chat worker: %s", resp.Error))
	}

	return resp.Text, nil
}

func (e *ProcessChatEngine) Close() error {
	e.pool.Close()
	return nil
}
