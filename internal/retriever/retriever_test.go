package retriever

import (
	"context"
	"testing"

	"github.com/GonzoDMX/rag-anywhere/internal/kernel"
	"github.com/GonzoDMX/rag-anywhere/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKernel struct {
	matches []kernel.Match
	err     error
}

func (k *fakeKernel) Search(query []float32, corpusDir string, topK int) ([]kernel.Match, error) {
	return k.matches, k.err
}

type fakeStore struct {
	store.Store
	similar []store.SimilarResult
	chunks  map[uint64]store.ChunkMeta
}

func (s *fakeStore) SearchSimilarVectors(ctx context.Context, q []float32, k int) ([]store.SimilarResult, error) {
	return s.similar, nil
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

// fakeKeywordStore additionally implements store.KeywordSearcher, so
// tests can exercise the retriever's final keyword-search fallback.
type fakeKeywordStore struct {
	fakeStore
	keyword []store.SimilarResult
}

func (s *fakeKeywordStore) SearchKeyword(ctx context.Context, query string, k int) ([]store.SimilarResult, error) {
	return s.keyword, nil
}

func TestSearchUsesKernelWhenNonEmpty(t *testing.T) {
	k := &fakeKernel{matches: []kernel.Match{{Hash: 1, Score: 0.9}}}
	s := &fakeStore{chunks: map[uint64]store.ChunkMeta{1: {Text: "from kernel"}}}

	r := New(k, s)
	chunks, err := r.Search(context.Background(), []float32{1, 0}, "query", 5, "/corpus")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "from kernel", chunks[0].Text)
}

func TestSearchFallsBackToStoreWhenKernelEmpty(t *testing.T) {
	k := &fakeKernel{matches: nil}
	s := &fakeStore{
		similar: []store.SimilarResult{{Hash: 2, Text: "from store", Similarity: 0.5}},
		chunks:  map[uint64]store.ChunkMeta{2: {Text: "from store"}},
	}

	r := New(k, s)
	chunks, err := r.Search(context.Background(), []float32{1, 0}, "query", 5, "/corpus")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "from store", chunks[0].Text)
}

func TestSearchDropsHashesWithNoStoredChunk(t *testing.T) {
	k := &fakeKernel{matches: []kernel.Match{{Hash: 1, Score: 0.9}, {Hash: 2, Score: 0.5}}}
	s := &fakeStore{chunks: map[uint64]store.ChunkMeta{1: {Text: "present"}}}

	r := New(k, s)
	chunks, err := r.Search(context.Background(), []float32{1, 0}, "query", 5, "/corpus")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "present", chunks[0].Text)
}

func TestSearchFallsBackToKeywordWhenVectorSearchEmpty(t *testing.T) {
	k := &fakeKernel{matches: nil}
	s := &fakeKeywordStore{
		fakeStore: fakeStore{chunks: map[uint64]store.ChunkMeta{3: {Text: "from keyword"}}},
		keyword:   []store.SimilarResult{{Hash: 3, Text: "from keyword", Similarity: 1.2}},
	}

	r := New(k, s)
	chunks, err := r.Search(context.Background(), []float32{1, 0}, "query", 5, "/corpus")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "from keyword", chunks[0].Text)
}

func TestSearchEmptyRankingReturnsEmptyNoError(t *testing.T) {
	k := &fakeKernel{matches: nil}
	s := &fakeStore{similar: nil}

	r := New(k, s)
	chunks, err := r.Search(context.Background(), []float32{1, 0}, "query", 5, "/corpus")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
