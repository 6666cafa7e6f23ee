// Package kernel implements spec.md §4.L's SimilarityKernel: a scan of
// every VectorDump file in a directory, returning the top-k (hash,
// score) pairs by cosine similarity against a query vector. This is the
// accelerator contract the spec describes as external and out of scope
// for any particular implementation technology; BruteForceKernel is the
// reference, pure-Go implementation the rest of the module runs against.
// container/heap is stdlib's idiomatic top-k structure — no example repo
// in the corpus reaches for a third-party heap for this kind of scan.
package kernel

import (
	"container/heap"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/GonzoDMX/rag-anywhere/internal/errs"
	"github.com/GonzoDMX/rag-anywhere/internal/vecdump"
)

// Match is one scored result: the stored chunk's content hash and its
// cosine similarity to the query vector.
type Match struct {
	Hash  uint64
	Score float32
}

// SimilarityKernel is the contract the Retriever calls first. An empty
// result (nil, no error) is a signal to fall back to the relational
// store, not a failure.
type SimilarityKernel interface {
	Search(query []float32, corpusDir string, k int) ([]Match, error)
}

// BruteForceKernel scans every *.vecdump file under a directory,
// memory-mapping each one via internal/vecdump and scoring every vector
// against the query, keeping the top k in a bounded min-heap.
type BruteForceKernel struct{}

func NewBruteForceKernel() *BruteForceKernel { return &BruteForceKernel{} }

func (k *BruteForceKernel) Search(query []float32, corpusDir string, topK int) ([]Match, error) {
	if topK <= 0 {
		return nil, nil
	}

	entries, err := os.ReadDir(corpusDir)
	if err != nil {
		return nil, errs.Wrap(errs.IoError, "read corpus directory", err)
	}

	h := &matchHeap{}
	heap.Init(h)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".vecdump") {
			continue
		}

		path := filepath.Join(corpusDir, entry.Name())
		handle, err := vecdump.Read(path)
		if err != nil {
			// A corrupt or unreadable dump degrades the search, it
			// doesn't fail it: the dump is skipped silently.
			// Dimension-mismatched dumps are handled just below.
			continue
		}

		if int(handle.Header.VectorDimensions) != len(query) && handle.Header.NumEntries > 0 {
			log.Printf("kernel: skipping dump %s: dimension %d does not match query dimension %d", entry.Name(), handle.Header.VectorDimensions, len(query))
			handle.Release()
			continue
		}

		vectors := handle.Vectors()
		hashes := handle.Hashes()
		for i, v := range vectors {
			score := cosineSimilarity(query, v)
			pushBounded(h, Match{Hash: hashes[i], Score: score}, topK)
		}
		handle.Release()
	}

	out := make([]Match, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(Match)
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / math.Sqrt(na*nb))
}

// pushBounded maintains h as a min-heap capped at size limit, so the
// root is always the current weakest of the top-k candidates seen so
// far; it is overwritten by anything stronger.
func pushBounded(h *matchHeap, m Match, limit int) {
	if h.Len() < limit {
		heap.Push(h, m)
		return
	}
	if h.Len() > 0 && m.Score > (*h)[0].Score {
		heap.Pop(h)
		heap.Push(h, m)
	}
}

type matchHeap []Match

func (h matchHeap) Len() int            { return len(h) }
func (h matchHeap) Less(i, j int) bool  { return h[i].Score < h[j].Score }
func (h matchHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *matchHeap) Push(x interface{}) { *h = append(*h, x.(Match)) }
func (h *matchHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
