package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitEmpty(t *testing.T) {
	assert.Nil(t, Split(nil, DefaultConfig))
	assert.Nil(t, Split([]string{"", ""}, DefaultConfig))
}

func TestSplitSinglePageNoOverlapNeeded(t *testing.T) {
	cfg := Config{MaxCharsPerBatch: 20, NOverlap: 0}
	text := strings.Repeat("a", 45)

	chunks := Split([]string{text}, cfg)
	assert.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Equal(t, 1, c.PageNum)
	}
	assert.Equal(t, text[40:45], chunks[2].Text)
}

func TestSplitOverlapReconstructsText(t *testing.T) {
	cfg := Config{MaxCharsPerBatch: 20, NOverlap: 5}
	text := strings.Repeat("abcdefghij", 6) // 60 chars

	chunks := Split([]string{text}, cfg)
	require := func(cond bool) {
		if !cond {
			t.Fatalf("overlap reconstruction failed")
		}
	}
	require(len(chunks) > 1)

	// Deduplicating the overlap between consecutive chunks should
	// reproduce the original text.
	rebuilt := chunks[0].Text
	for i := 1; i < len(chunks); i++ {
		rebuilt += chunks[i].Text[cfg.NOverlap:]
	}
	assert.Equal(t, text, rebuilt)
}

func TestSplitPageAttribution(t *testing.T) {
	cfg := Config{MaxCharsPerBatch: 10, NOverlap: 0}
	pages := []string{strings.Repeat("a", 10), strings.Repeat("b", 10), strings.Repeat("c", 10)}

	chunks := Split(pages, cfg)
	assert.Equal(t, 1, chunks[0].PageNum)
	assert.Equal(t, 2, chunks[1].PageNum)
	assert.Equal(t, 3, chunks[2].PageNum)

	// monotonic non-decreasing page numbers
	for i := 1; i < len(chunks); i++ {
		assert.GreaterOrEqual(t, chunks[i].PageNum, chunks[i-1].PageNum)
	}
}

func TestSplitFinalWindowShorterThanMax(t *testing.T) {
	cfg := Config{MaxCharsPerBatch: 10, NOverlap: 0}
	text := strings.Repeat("x", 23)

	chunks := Split([]string{text}, cfg)
	assert.Equal(t, "xxx", chunks[len(chunks)-1].Text)
}
