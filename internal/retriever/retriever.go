// Package retriever implements spec.md §4.M's search: try the
// SimilarityKernel over on-disk vector dumps first, fall back to the
// RelationalStore's own similarity search if the kernel comes back
// empty, fall back further to a keyword search on stores that support
// one if that too comes back empty, then hydrate whichever ranked hash
// list won into ContextChunk by joining back through the store.
package retriever

import (
	"context"
	"log"

	"github.com/GonzoDMX/rag-anywhere/internal/kernel"
	"github.com/GonzoDMX/rag-anywhere/internal/models"
	"github.com/GonzoDMX/rag-anywhere/internal/store"
)

// Retriever ties a SimilarityKernel and a Store together behind one
// search operation.
type Retriever struct {
	kernel kernel.SimilarityKernel
	store  store.Store
}

func New(k kernel.SimilarityKernel, s store.Store) *Retriever {
	return &Retriever{kernel: k, store: s}
}

// rankedHit is the kernel/store-agnostic intermediate ranking, before
// hydration.
type rankedHit struct {
	hash  uint64
	score float32
}

// Search returns up to k ContextChunks for query q, ranked by
// descending similarity. Results whose hash has no corresponding store
// row are dropped with a logged warning, per spec.md §4.M step 4.
// queryText, the raw natural-language query, feeds a final keyword-search
// fallback on stores that implement KeywordSearcher when both the kernel
// and the store's vector search come back empty.
func (r *Retriever) Search(ctx context.Context, q []float32, queryText string, k int, corpusDir string) ([]models.ContextChunk, error) {
	ranked, err := r.rank(ctx, q, queryText, k, corpusDir)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, nil
	}

	hashes := make([]uint64, len(ranked))
	for i, hit := range ranked {
		hashes[i] = hit.hash
	}

	metas, err := r.store.GetChunksByHashes(ctx, hashes)
	if err != nil {
		return nil, err
	}

	out := make([]models.ContextChunk, 0, len(ranked))
	for _, hit := range ranked {
		meta, ok := metas[hit.hash]
		if !ok {
			log.Printf("retriever: hash %d has no stored chunk, dropping from results", hit.hash)
			continue
		}
		out = append(out, models.ContextChunk{
			Text:       meta.Text,
			Similarity: hit.score,
			Hash:       hit.hash,
			FilePath:   meta.FilePath,
			FileName:   meta.FileName,
			Title:      meta.Title,
			Author:     meta.Author,
			PageCount:  meta.PageCount,
			PageNum:    meta.PageNum,
		})
	}
	return out, nil
}

// rank attempts the kernel first; an empty (not error) kernel result
// falls back to the store's own similarity search, and an empty result
// from that falls back further to a keyword search on stores that
// implement KeywordSearcher.
func (r *Retriever) rank(ctx context.Context, q []float32, queryText string, k int, corpusDir string) ([]rankedHit, error) {
	if r.kernel != nil {
		matches, err := r.kernel.Search(q, corpusDir, k)
		if err != nil {
			log.Printf("retriever: kernel search failed, falling back to store: %v", err)
		} else if len(matches) > 0 {
			out := make([]rankedHit, len(matches))
			for i, m := range matches {
				out[i] = rankedHit{hash: m.Hash, score: m.Score}
			}
			return out, nil
		}
	}

	results, err := r.store.SearchSimilarVectors(ctx, q, k)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		out := make([]rankedHit, len(results))
		for i, res := range results {
			out[i] = rankedHit{hash: res.Hash, score: res.Similarity}
		}
		return out, nil
	}

	if kw, ok := r.store.(store.KeywordSearcher); ok {
		results, err := kw.SearchKeyword(ctx, queryText, k)
		if err != nil {
			log.Printf("retriever: keyword search failed: %v", err)
			return nil, nil
		}
		out := make([]rankedHit, len(results))
		for i, res := range results {
			out[i] = rankedHit{hash: res.Hash, score: res.Similarity}
		}
		return out, nil
	}
	return nil, nil
}
