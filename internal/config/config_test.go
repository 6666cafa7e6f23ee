package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir string, body string) string {
	t.Helper()
	path := filepath.Join(dir, "rag-anywhere.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadAppliesDefaultsWhenFileOmitsFields(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
chat_model_path: /models/chat.bin
embeddings_model_path: /models/embed.bin
embedding_dimension: 768
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Defaults.Retrieval.KTop, cfg.Retrieval.KTop)
	assert.Equal(t, Defaults.Chunking.MaxChunkSize, cfg.Chunking.MaxChunkSize)
	assert.Equal(t, Defaults.Concurrency.IngestThreads, cfg.Concurrency.IngestThreads)
	assert.Equal(t, "/models/chat.bin", cfg.ChatModelPath)
}

func TestLoadOverridesDefaultsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
chat_model_path: /models/chat.bin
embeddings_model_path: /models/embed.bin
embedding_dimension: 1024
retrieval:
  k_top: 10
chunking:
  max_chunk_size: 256
  overlap: 32
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Retrieval.KTop)
	assert.Equal(t, 256, cfg.Chunking.MaxChunkSize)
	assert.Equal(t, 32, cfg.Chunking.Overlap)
	assert.Equal(t, 1024, cfg.EmbeddingDimension)
}

func TestLoadMissingRequiredFieldsFails(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
embedding_dimension: 768
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
chat_model_path: /models/chat.bin
embeddings_model_path: /models/embed.bin
embedding_dimension: 768
`)

	t.Setenv("RAGANYWHERE_CORPUS_DIR", "/tmp/env-corpus")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env-corpus", cfg.CorpusDir)
}

func TestLoadFileParsesExplicitYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
chat_model_path: /models/chat.bin
embeddings_model_path: /models/embed.bin
embedding_dimension: 384
store_conn_string: postgres://localhost/rag
chat:
  max_generation_tokens: 128
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 384, cfg.EmbeddingDimension)
	assert.Equal(t, 128, cfg.Chat.MaxGenerationTokens)
	assert.Equal(t, Defaults.Chat.SystemPrompt, cfg.Chat.SystemPrompt)
}

func TestLoadFileMissingFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsZeroDimension(t *testing.T) {
	cfg := Defaults
	cfg.ChatModelPath = "/models/chat.bin"
	cfg.EmbeddingsModelPath = "/models/embed.bin"
	cfg.EmbeddingDimension = 0
	assert.Error(t, cfg.Validate())
}

func TestCheckCompatibilityEmbeddingMismatchIsIncompatible(t *testing.T) {
	status, issues := CheckCompatibility(DBState{
		EmbedID:      "old-model",
		EmbedVersion: "0.1",
		EmbedDim:     384,
		ChatID:       CurrentDefaults.ChatModel.ID,
		ChatVersion:  CurrentDefaults.ChatModel.Version,
	})
	assert.Equal(t, StatusIncompatible, status)
	assert.NotEmpty(t, issues)
}

func TestCheckCompatibilityChatMismatchIsUpdateAvailable(t *testing.T) {
	status, issues := CheckCompatibility(DBState{
		EmbedID:      CurrentDefaults.EmbeddingModel.ID,
		EmbedVersion: CurrentDefaults.EmbeddingModel.Version,
		EmbedDim:     CurrentDefaults.EmbeddingModel.Dimension,
		ChatID:       "old-chat",
		ChatVersion:  "0.1",
	})
	assert.Equal(t, StatusUpdateAvailable, status)
	assert.NotEmpty(t, issues)
}

func TestCheckCompatibilityMatchingIsCompatible(t *testing.T) {
	status, issues := CheckCompatibility(DBState{
		EmbedID:      CurrentDefaults.EmbeddingModel.ID,
		EmbedVersion: CurrentDefaults.EmbeddingModel.Version,
		EmbedDim:     CurrentDefaults.EmbeddingModel.Dimension,
		ChatID:       CurrentDefaults.ChatModel.ID,
		ChatVersion:  CurrentDefaults.ChatModel.Version,
	})
	assert.Equal(t, StatusCompatible, status)
	assert.Empty(t, issues)
}
