package vecdump

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc123.vecdump")

	vectors := [][]float32{
		{0.1, 0.2, 0.3},
		{-0.4, 0.5, -0.6},
	}
	hashes := []uint64{111, 222}

	require.NoError(t, Write(path, vectors, hashes))

	h, err := Read(path)
	require.NoError(t, err)
	defer h.Release()

	assert.Equal(t, uint32(2), h.Header.NumEntries)
	assert.Equal(t, uint32(3), h.Header.VectorDimensions)
	assert.Equal(t, uint32(8), h.Header.HashSizeBytes)
	assert.Equal(t, uint32(12), h.Header.VectorSizeBytes)
	assert.Equal(t, vectors, h.Vectors())
	assert.Equal(t, hashes, h.Hashes())
}

func TestWriteReadEmptyDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.vecdump")

	require.NoError(t, Write(path, nil, nil))

	h, err := Read(path)
	require.NoError(t, err)
	defer h.Release()

	assert.Equal(t, uint32(0), h.Header.NumEntries)
	assert.Empty(t, h.Vectors())
	assert.Empty(t, h.Hashes())
}

func TestWriteDimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.vecdump")
	err := Write(path, [][]float32{{1, 2}, {1, 2, 3}}, []uint64{1, 2})
	assert.Error(t, err)
}

func TestWriteCountMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad2.vecdump")
	err := Write(path, [][]float32{{1, 2}}, []uint64{1, 2})
	assert.Error(t, err)
}

func TestFileSizeMatchesSpecFormula(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sized.vecdump")
	vectors := make([][]float32, 5)
	hashes := make([]uint64, 5)
	for i := range vectors {
		vectors[i] = []float32{1, 2, 3, 4}
		hashes[i] = uint64(i)
	}
	require.NoError(t, Write(path, vectors, hashes))

	info, err := os.Stat(path)
	require.NoError(t, err)

	want := int64(16 + 5*(4*4+8))
	assert.Equal(t, want, info.Size())
}
