// Package chunker splits a document's per-page text into overlapping
// chunks carrying page numbers, per spec.md §4.D. It is grounded on the
// teacher's pipeline.CreateSubChunks sliding-window-with-rewind structure,
// reworked to operate over characters spanning multiple pages instead of
// tokens within one page-less buffer.
package chunker

// Config bounds the chunker's window size and overlap.
type Config struct {
	// MaxCharsPerBatch is the nominal window size before overlap is
	// subtracted twice (once on each side).
	MaxCharsPerBatch int
	// NOverlap is how far consecutive windows rewind into each other.
	NOverlap int
}

// DefaultConfig matches the teacher's constants.h defaults.
var DefaultConfig = Config{MaxCharsPerBatch: 512, NOverlap: 80}

// maxChunkSize is the derived window size actually walked: the nominal
// batch size less overlap on both sides, per spec.md's
// "MAX_CHUNK_SIZE = MAX_CHARS_PER_BATCH − 2·CHUNK_N_OVERLAP".
func (c Config) maxChunkSize() int {
	size := c.MaxCharsPerBatch - 2*c.NOverlap
	if size < 1 {
		size = 1
	}
	return size
}

// Chunk is one window of text plus the 1-based page it starts on.
type Chunk struct {
	Text    string
	PageNum int
}

// Split concatenates pages (1-indexed by position) into one buffer and
// walks it in overlapping fixed-size windows. Each window's page number is
// the smallest page index whose cumulative end offset exceeds the
// window's start offset. Empty pages contribute nothing but still mark a
// page boundary.
func Split(pages []string, cfg Config) []Chunk {
	maxChunk := cfg.maxChunkSize()
	overlap := cfg.NOverlap
	if overlap >= maxChunk {
		overlap = maxChunk / 2
	}

	var buf []byte
	pageEnds := make([]int, len(pages))
	for i, p := range pages {
		buf = append(buf, p...)
		pageEnds[i] = len(buf)
	}

	text := string(buf)
	total := len(text)
	if total == 0 {
		return nil
	}

	var chunks []Chunk
	step := maxChunk - overlap
	if step < 1 {
		step = 1
	}

	for start := 0; start < total; start += step {
		end := start + maxChunk
		if end > total {
			end = total
		}

		chunks = append(chunks, Chunk{
			Text:    text[start:end],
			PageNum: pageForOffset(pageEnds, start),
		})

		if end == total {
			break
		}
	}

	return chunks
}

// pageForOffset returns the 1-based index of the smallest page whose
// cumulative end offset exceeds offset. If offset lands at or past the
// final page's end (can happen for the very last, possibly empty,
// trailing window), the last page is returned. Page number is 0 when
// pageEnds is empty.
func pageForOffset(pageEnds []int, offset int) int {
	for i, end := range pageEnds {
		if offset < end {
			return i + 1
		}
	}
	if len(pageEnds) > 0 {
		return len(pageEnds)
	}
	return 0
}
