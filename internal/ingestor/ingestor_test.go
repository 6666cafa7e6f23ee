package ingestor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/GonzoDMX/rag-anywhere/internal/embedservice"
	"github.com/GonzoDMX/rag-anywhere/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestCollectPDFsSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	touch(t, path)

	files, err := collectPDFs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestCollectPDFsRejectsNonPDFFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	touch(t, path)

	_, err := collectPDFs(path)
	assert.Error(t, err)
}

func TestCollectPDFsRecursesDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))

	touch(t, filepath.Join(dir, "a.pdf"))
	touch(t, filepath.Join(dir, "nested", "b.pdf"))
	touch(t, filepath.Join(dir, "ignored.txt"))

	files, err := collectPDFs(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestExistingDumpFingerprintsReadsDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "abc123.vecdump"))
	touch(t, filepath.Join(dir, "notadump.txt"))

	existing, err := existingDumpFingerprints(dir)
	require.NoError(t, err)
	_, ok := existing["abc123"]
	assert.True(t, ok)
	assert.Len(t, existing, 1)
}

func TestExistingDumpFingerprintsMissingDirIsEmpty(t *testing.T) {
	existing, err := existingDumpFingerprints(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, existing)
}

func TestDumpPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/corpus", "abc.vecdump"), dumpPath("/corpus", "abc"))
}

func TestReconcileEmbeddingsKeysByIndexNotPosition(t *testing.T) {
	chunks := []models.Chunk{
		{Text: "first", PageNum: 1},
		{Text: "second", PageNum: 2},
		{Text: "third", PageNum: 3},
	}
	// As if chunks[1] embedded to "" and was skipped by embedservice:
	// embedded has two entries, indices 0 and 2, not 0 and 1.
	embedded := []embedservice.Result{
		{Index: 0, Vector: []float32{0.1}, Hash: 10},
		{Index: 2, Vector: []float32{0.3}, Hash: 30},
	}

	savedChunks, vectors, hashes := reconcileEmbeddings(chunks, embedded)

	require.Len(t, savedChunks, 2)
	assert.Equal(t, "first", savedChunks[0].Text)
	assert.Equal(t, 1, savedChunks[0].PageNum)
	assert.Equal(t, "third", savedChunks[1].Text)
	assert.Equal(t, 3, savedChunks[1].PageNum)
	assert.Equal(t, uint64(10), hashes[0])
	assert.Equal(t, uint64(30), hashes[1])
	assert.Equal(t, []float32{0.1}, vectors[0])
	assert.Equal(t, []float32{0.3}, vectors[1])
}
