package fingerprint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileDeterministic(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "a.pdf", "identical bytes")

	h1, err := File(path)
	require.NoError(t, err)
	h2, err := File(path)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64) // hex-encoded sha256
}

func TestFileDiffersOnContent(t *testing.T) {
	dir := t.TempDir()
	pathA := writeTemp(t, dir, "a.pdf", "content A")
	pathB := writeTemp(t, dir, "b.pdf", "content B")

	hA, err := File(pathA)
	require.NoError(t, err)
	hB, err := File(pathB)
	require.NoError(t, err)

	assert.NotEqual(t, hA, hB)
}

func TestFileUnreadable(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	pathA := writeTemp(t, dir, "a.pdf", "content A")
	pathB := writeTemp(t, dir, "b.pdf", "content B")
	missing := filepath.Join(dir, "missing.pdf")

	hashes, failures := Batch([]string{pathA, pathB, missing})

	assert.Len(t, hashes, 2)
	assert.Len(t, failures, 1)
	assert.Contains(t, failures, missing)

	want, _ := File(pathA)
	assert.Equal(t, want, hashes[pathA])
}
