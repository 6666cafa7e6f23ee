package rag

import (
	"context"
	"testing"

	"github.com/GonzoDMX/rag-anywhere/internal/embedservice"
	"github.com/GonzoDMX/rag-anywhere/internal/engine"
	"github.com/GonzoDMX/rag-anywhere/internal/kernel"
	"github.com/GonzoDMX/rag-anywhere/internal/models"
	"github.com/GonzoDMX/rag-anywhere/internal/retriever"
	"github.com/GonzoDMX/rag-anywhere/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKernel struct {
	matches []kernel.Match
}

func (k *fakeKernel) Search(query []float32, corpusDir string, topK int) ([]kernel.Match, error) {
	return k.matches, nil
}

type fakeStore struct {
	store.Store
	chunks map[uint64]store.ChunkMeta
}

func (s *fakeStore) GetChunksByHashes(ctx context.Context, hashes []uint64) (map[uint64]store.ChunkMeta, error) {
	out := make(map[uint64]store.ChunkMeta)
	for _, h := range hashes {
		if meta, ok := s.chunks[h]; ok {
			out[h] = meta
		}
	}
	return out, nil
}

func (s *fakeStore) SearchSimilarVectors(ctx context.Context, q []float32, k int) ([]store.SimilarResult, error) {
	return nil, nil
}

func TestQueryRagAssemblesPromptAndResponse(t *testing.T) {
	embed := embedservice.New(engine.NewNullEmbeddingEngine(8), embedservice.DefaultConfig)
	r := retriever.New(
		&fakeKernel{matches: []kernel.Match{{Hash: 1, Score: 0.9}}},
		&fakeStore{chunks: map[uint64]store.ChunkMeta{1: {Text: "Paris is the capital of France.", FileName: "geo.pdf", PageNum: 2, PageCount: 10}}},
	)
	chat := engine.NewNullChatEngine()

	c := New(embed, r, chat, DefaultConfig)

	result, err := c.QueryRag(context.Background(), "What is the capital of France?", "/corpus")
	require.NoError(t, err)
	assert.Empty(t, result.Diagnostic)
	assert.Len(t, result.Context, 1)
	assert.Equal(t, 1, result.DistinctDocuments)
	assert.NotEmpty(t, result.Response)
}

func TestQueryRagEmptyQueryReturnsDiagnostic(t *testing.T) {
	embed := embedservice.New(engine.NewNullEmbeddingEngine(8), embedservice.DefaultConfig)
	r := retriever.New(&fakeKernel{}, &fakeStore{chunks: map[uint64]store.ChunkMeta{}})
	chat := engine.NewNullChatEngine()

	c := New(embed, r, chat, DefaultConfig)

	result, err := c.QueryRag(context.Background(), "", "/corpus")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Diagnostic)
	assert.Empty(t, result.Response)
}

func TestQueryRagNoContextReturnsDiagnostic(t *testing.T) {
	embed := embedservice.New(engine.NewNullEmbeddingEngine(8), embedservice.DefaultConfig)
	r := retriever.New(&fakeKernel{matches: nil}, &fakeStore{chunks: map[uint64]store.ChunkMeta{}})
	chat := engine.NewNullChatEngine()

	c := New(embed, r, chat, DefaultConfig)

	result, err := c.QueryRag(context.Background(), "anything", "/corpus")
	require.NoError(t, err)
	assert.Contains(t, result.Diagnostic, "no context")
}

func TestFormatRagResultIncludesProvenance(t *testing.T) {
	out := FormatRagResult(models.RagResult{
		Response: "Paris.",
		Context: []models.ContextChunk{
			{FileName: "geo.pdf", PageNum: 2, Similarity: 0.95},
		},
	})
	assert.Contains(t, out, "geo.pdf")
	assert.Contains(t, out, "page 2")
}

func TestFormatRagResultShowsDiagnostic(t *testing.T) {
	out := FormatRagResult(models.RagResult{Diagnostic: "no context found for query"})
	assert.Contains(t, out, "no context found for query")
}
