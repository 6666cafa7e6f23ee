// Package embedservice turns chunk text into normalized vectors and
// content-addressed hashes. Tokenization, batching, and decoding are the
// concern of an engine.EmbeddingEngine (itself backed by a ContextPool of
// worker processes); this package owns what sits on either side of that
// boundary: skipping empty inputs, batching calls to the engine, L2
// normalization, and the 64-bit bit-mixing hash, grounded on the
// teacher's internal/models.Float32ToBytes/BytesToFloat32 as this
// project's established convention for touching raw float32 bit patterns.
package embedservice

import (
	"context"
	"math"

	"github.com/GonzoDMX/rag-anywhere/internal/engine"
)

const hashMixConstant uint64 = 0x9e3779b9

// Config bounds how many texts are sent to the engine per call. The
// engine itself may further subdivide by token budget; this cap just
// keeps any one call's payload (and JSON marshal cost, for process
// engines) bounded.
type Config struct {
	MaxBatchSize int
}

var DefaultConfig = Config{MaxBatchSize: 32}

// Result pairs one input's normalized vector and hash with Index, its
// position in the original texts slice passed to Embed. Results are not
// guaranteed to be contiguous or in positional order once any input is
// skipped or a batch fails, so callers must key off Index rather than a
// Result's position in the returned slice.
type Result struct {
	Index  int
	Vector []float32
	Hash   uint64
}

// Warning describes one non-fatal embedding failure, identified by its
// position in the original input slice.
type Warning struct {
	Index   int
	Message string
}

// Service wraps an EmbeddingEngine with the normalize+hash pipeline.
type Service struct {
	engine engine.EmbeddingEngine
	cfg    Config
}

func New(eng engine.EmbeddingEngine, cfg Config) *Service {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultConfig.MaxBatchSize
	}
	return &Service{engine: eng, cfg: cfg}
}

// Embed returns one Result per non-empty entry in texts, in the same
// relative order as the non-skipped inputs, plus one Warning per input
// skipped or failed. Callers must reconcile results against their
// original index list themselves, since a batch that fails to decode
// yields fewer outputs than inputs (spec.md §4.J's failure policy).
func (s *Service) Embed(ctx context.Context, texts []string) ([]Result, []Warning, error) {
	type pending struct {
		index int
		text  string
	}

	var toEmbed []pending
	var warnings []Warning
	for i, text := range texts {
		if text == "" {
			warnings = append(warnings, Warning{Index: i, Message: "empty input skipped"})
			continue
		}
		toEmbed = append(toEmbed, pending{index: i, text: text})
	}

	results := make([]Result, 0, len(toEmbed))

	for start := 0; start < len(toEmbed); start += s.cfg.MaxBatchSize {
		end := start + s.cfg.MaxBatchSize
		if end > len(toEmbed) {
			end = len(toEmbed)
		}
		batch := toEmbed[start:end]

		batchTexts := make([]string, len(batch))
		for i, p := range batch {
			batchTexts[i] = p.text
		}

		vectors, err := s.engine.Embed(ctx, batchTexts)
		if err != nil {
			for _, p := range batch {
				warnings = append(warnings, Warning{Index: p.index, Message: err.Error()})
			}
			continue
		}

		for i, v := range vectors {
			normalized := normalize(v)
			results = append(results, Result{
				Index:  batch[i].index,
				Vector: normalized,
				Hash:   hash(normalized),
			})
		}
	}

	return results, warnings, nil
}

// normalize rescales v to unit L2 length. The zero vector is returned
// unchanged rather than dividing by zero.
func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// hash folds the IEEE-754 bit pattern of every component of v into one
// 64-bit value via h := h ⊕ (bits(v_i) + 0x9e3779b9 + (h<<6) + (h>>2)).
// Collisions are possible but negligible at corpus scales served.
func hash(v []float32) uint64 {
	var h uint64
	for _, x := range v {
		bits := uint64(math.Float32bits(x))
		h ^= bits + hashMixConstant + (h << 6) + (h >> 2)
	}
	return h
}
