package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is the metadata shell for one ingested PDF, identified by the
// content hash of its bytes (FileFingerprint).
type Document struct {
	ID              uuid.UUID
	FileFingerprint string
	FilePath        string
	FileName        string
	Title           string
	Author          string
	Subject         string
	Keywords        string
	Creator         string
	Producer        string
	PageCount       int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Chunk is a bounded slice of a document's concatenated text, carrying the
// page it starts on and the hash of its embedding.
type Chunk struct {
	Text          string
	PageNum       int
	EmbeddingHash uint64
}

// ContextChunk is a Chunk hydrated with its owning document's provenance
// and a similarity score, as returned from retrieval.
type ContextChunk struct {
	Text       string
	Similarity float32
	Hash       uint64
	FilePath   string
	FileName   string
	Title      string
	Author     string
	PageCount  int
	PageNum    int
}

// Embedding pairs a chunk's vector with its content hash.
type Embedding struct {
	Vector []float32
	Hash   uint64
}

// RagResult is the packaged answer plus its provenance chunks.
type RagResult struct {
	Response          string
	Context           []ContextChunk
	DistinctDocuments int
	Diagnostic        string
}

// WorkResult reports the outcome of an addCorpus invocation.
type WorkResult struct {
	OK             bool
	ErrorMessage   string
	SuccessMessage string
	FilesProcessed int
	FilesSkipped   int
	FilesFailed    int
	Warnings       []string
}
