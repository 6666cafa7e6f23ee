// Package store implements the relational schema of spec.md §4.K behind
// one Store interface, with two backends selected by connection-string
// scheme: Postgres+pgvector (primary) and SQLite (secondary/offline).
// Generalizes the teacher's store.Manager/schema_def.go — its SQLite/FTS5
// schema survives in the sqlite backend, while its ~/.rag-anywhere
// directory layout does not (Open takes the database location straight
// from the connection string); its many-concerns schema narrows down to
// documents and embeddings plus a config key/value table (and, in
// SQLite, an FTS5 index over embeddings.chunk_text).
package store

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/GonzoDMX/rag-anywhere/internal/config"
	"github.com/GonzoDMX/rag-anywhere/internal/errs"
	"github.com/GonzoDMX/rag-anywhere/internal/models"
)

// ChunkMeta is one hydrated chunk: its text plus the document columns a
// caller needs to render provenance, per §4.K's getChunksByHashes.
type ChunkMeta struct {
	Text      string
	PageNum   int
	FilePath  string
	FileName  string
	Title     string
	Author    string
	PageCount int
}

// SimilarResult is one row of a similarity search: a stored chunk's hash,
// text, and cosine similarity to the query vector.
type SimilarResult struct {
	Hash       uint64
	Text       string
	Similarity float32
}

// Store is the relational persistence contract every backend implements.
// Document identity is the caller's file fingerprint, stored as
// file_hash; embedding identity is the caller's content hash, stored as
// embedding_hash, and is the dedup and hydration key throughout.
type Store interface {
	// Initialize creates extensions/tables/indexes idempotently.
	Initialize(ctx context.Context) error

	// UpsertDocument inserts a new document row by FileFingerprint, or
	// updates every column but id/created_at if one already exists.
	UpsertDocument(ctx context.Context, doc models.Document) error

	// DeleteByFileHash removes a document and, via cascade, its chunks.
	DeleteByFileHash(ctx context.Context, fileHash string) error

	// SaveChunks persists chunks/vectors/hashes for the document
	// identified by fileHash in one transaction. Uniqueness on
	// embedding_hash deduplicates; returns the number of rows actually
	// inserted (duplicates do not count).
	SaveChunks(ctx context.Context, fileHash string, chunks []models.Chunk, vectors [][]float32, hashes []uint64) (int64, error)

	// GetChunksByHashes hydrates the given content hashes into ChunkMeta,
	// keyed by hash. Hashes with no matching row are simply absent.
	GetChunksByHashes(ctx context.Context, hashes []uint64) (map[uint64]ChunkMeta, error)

	// SearchSimilarVectors returns up to k rows ordered by descending
	// cosine similarity to q.
	SearchSimilarVectors(ctx context.Context, q []float32, k int) ([]SimilarResult, error)

	// GetModelStamp reads the model identity this store's vectors were
	// produced against, stamped by the first SaveModelStamp call. found
	// is false on a freshly initialized, never-stamped store.
	GetModelStamp(ctx context.Context) (state config.DBState, found bool, err error)

	// SaveModelStamp records the currently configured model identity,
	// overwriting any previous stamp. Called once after a fresh
	// Initialize and again whenever an operator knowingly re-ingests
	// under a new model.
	SaveModelStamp(ctx context.Context, state config.DBState) error

	Close() error
}

// KeywordSearcher is an optional capability a Store backend may implement
// alongside vector search: ranking chunks by lexical relevance to a raw
// query string rather than a query vector. The SQLite backend implements
// it over an FTS5 side channel; Postgres/pgvector does not, so callers
// must use a type assertion rather than calling it through Store.
type KeywordSearcher interface {
	SearchKeyword(ctx context.Context, query string, k int) ([]SimilarResult, error)
}

// Open dispatches to a backend by connection-string scheme:
// "postgres://" or "postgresql://" selects the Postgres/pgvector
// backend; anything else (a bare file path, or a "sqlite://" prefix)
// selects the embedded SQLite backend.
func Open(connString string, dimensions int) (Store, error) {
	switch {
	case strings.HasPrefix(connString, "postgres://"), strings.HasPrefix(connString, "postgresql://"):
		return openPostgres(connString, dimensions)
	case strings.HasPrefix(connString, "sqlite://"):
		return openSQLite(strings.TrimPrefix(connString, "sqlite://"), dimensions)
	case connString == "":
		return nil, errs.New(errs.ConfigError, "store_conn_string must not be empty")
	default:
		return openSQLite(connString, dimensions)
	}
}

// hashToText renders a u64 embedding hash as a decimal string, the wire
// format embedding_hash uses in both backends to avoid sign-confusion on
// drivers that surface BIGINT as a signed type.
func hashToText(h uint64) string {
	return strconv.FormatUint(h, 10)
}

func textToHash(s string) (uint64, error) {
	h, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errs.Wrap(errs.ParseError, "parse embedding_hash", err)
	}
	return h, nil
}

// clampPageNum enforces chunk_page_num ∈ [0, page_count] on a hydrated
// ChunkMeta, per spec.md §9's guidance that the relationship is only
// lightly enforced upstream and callers should validate the range. A
// page_count of 0 (unknown) is not itself a violation.
func clampPageNum(meta *ChunkMeta) {
	if meta.PageCount <= 0 {
		return
	}
	if meta.PageNum < 0 {
		log.Printf("store: chunk_page_num %d below 0, clamping to 0", meta.PageNum)
		meta.PageNum = 0
	} else if meta.PageNum > meta.PageCount {
		log.Printf("store: chunk_page_num %d exceeds page_count %d, clamping", meta.PageNum, meta.PageCount)
		meta.PageNum = meta.PageCount
	}
}
