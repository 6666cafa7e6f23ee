package kernel

import (
	"path/filepath"
	"testing"

	"github.com/GonzoDMX/rag-anywhere/internal/vecdump"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDump(t *testing.T, dir, name string, vectors [][]float32, hashes []uint64) {
	t.Helper()
	require.NoError(t, vecdump.Write(filepath.Join(dir, name), vectors, hashes))
}

func TestBruteForceKernelReturnsTopK(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, dir, "a.vecdump", [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
	}, []uint64{1, 2, 3})

	k := NewBruteForceKernel()
	matches, err := k.Search([]float32{1, 0, 0}, dir, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, uint64(1), matches[0].Hash)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestBruteForceKernelAcrossMultipleDumps(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, dir, "a.vecdump", [][]float32{{1, 0}}, []uint64{10})
	writeDump(t, dir, "b.vecdump", [][]float32{{0, 1}}, []uint64{20})

	k := NewBruteForceKernel()
	matches, err := k.Search([]float32{1, 0}, dir, 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, uint64(10), matches[0].Hash)
}

func TestBruteForceKernelSkipsDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, dir, "a.vecdump", [][]float32{{1, 0, 0}}, []uint64{1})

	k := NewBruteForceKernel()
	matches, err := k.Search([]float32{1, 0}, dir, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestBruteForceKernelEmptyDirReturnsEmptyNotError(t *testing.T) {
	dir := t.TempDir()

	k := NewBruteForceKernel()
	matches, err := k.Search([]float32{1, 0}, dir, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestBruteForceKernelTolerantOfEmptyDump(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, dir, "empty.vecdump", nil, nil)
	writeDump(t, dir, "a.vecdump", [][]float32{{1, 0}}, []uint64{1})

	k := NewBruteForceKernel()
	matches, err := k.Search([]float32{1, 0}, dir, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
}
