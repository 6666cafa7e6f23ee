package store

import (
	"context"
	"fmt"

	"github.com/GonzoDMX/rag-anywhere/internal/config"
	"github.com/GonzoDMX/rag-anywhere/internal/errs"
	"github.com/GonzoDMX/rag-anywhere/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// pgSchema mirrors spec.md §4.K's logical schema: documents, embeddings,
// an approximate-cosine index, and an update-timestamp trigger. Grounded
// on mohammad-safakhou-newser's store package (lib/pq, pgvector-typed
// columns for semantic search) and on
// other_examples/arroofi07-go-rag-edu__document_chunk.go's pgvector.Vector
// field for the column shape itself.
const pgSchemaTemplate = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

CREATE TABLE IF NOT EXISTS config (
    key TEXT PRIMARY KEY,
    value TEXT
);

CREATE TABLE IF NOT EXISTS documents (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    file_hash TEXT UNIQUE NOT NULL,
    file_path TEXT NOT NULL,
    file_name TEXT NOT NULL,
    title TEXT,
    author TEXT,
    subject TEXT,
    keywords TEXT,
    creator TEXT,
    producer TEXT,
    page_count INT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS embeddings (
    id BIGSERIAL PRIMARY KEY,
    document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    chunk_text TEXT NOT NULL,
    embedding_hash TEXT UNIQUE NOT NULL,
    embedding VECTOR(%d) NOT NULL,
    chunk_page_num INT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS embeddings_vector_idx
    ON embeddings USING hnsw (embedding vector_cosine_ops);

CREATE OR REPLACE FUNCTION set_updated_at() RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = now();
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS documents_set_updated_at ON documents;
CREATE TRIGGER documents_set_updated_at
    BEFORE UPDATE ON documents
    FOR EACH ROW EXECUTE FUNCTION set_updated_at();
`

type postgresStore struct {
	db   *sqlx.DB
	dims int
}

// openPostgres connects through jmoiron/sqlx, the same wrapper sqlite.go
// uses. Here the read paths scan rows straight into tagged structs via
// SelectContext; sqlite.go's read paths scan column by column instead.
func openPostgres(connString string, dims int) (Store, error) {
	db, err := sqlx.Connect("postgres", connString)
	if err != nil {
		return nil, errs.Wrap(errs.StoreError, "open postgres connection", err)
	}
	return &postgresStore{db: db, dims: dims}, nil
}

func (s *postgresStore) Initialize(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(pgSchemaTemplate, s.dims))
	if err != nil {
		return errs.Wrap(errs.StoreError, "initialize postgres schema", err)
	}
	return nil
}

func (s *postgresStore) UpsertDocument(ctx context.Context, doc models.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, file_hash, file_path, file_name, title, author, subject, keywords, creator, producer, page_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (file_hash) DO UPDATE SET
			file_path = EXCLUDED.file_path,
			file_name = EXCLUDED.file_name,
			title = EXCLUDED.title,
			author = EXCLUDED.author,
			subject = EXCLUDED.subject,
			keywords = EXCLUDED.keywords,
			creator = EXCLUDED.creator,
			producer = EXCLUDED.producer,
			page_count = EXCLUDED.page_count
	`,
		docID(doc), doc.FileFingerprint, doc.FilePath, doc.FileName,
		doc.Title, doc.Author, doc.Subject, doc.Keywords, doc.Creator, doc.Producer, doc.PageCount,
	)
	if err != nil {
		return errs.Wrap(errs.StoreError, "upsert document", err)
	}
	return nil
}

func docID(doc models.Document) uuid.UUID {
	if doc.ID == uuid.Nil {
		return uuid.New()
	}
	return doc.ID
}

func (s *postgresStore) DeleteByFileHash(ctx context.Context, fileHash string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE file_hash = $1`, fileHash)
	if err != nil {
		return errs.Wrap(errs.StoreError, "delete document by file_hash", err)
	}
	return nil
}

func (s *postgresStore) SaveChunks(ctx context.Context, fileHash string, chunks []models.Chunk, vectors [][]float32, hashes []uint64) (int64, error) {
	if len(chunks) != len(vectors) || len(chunks) != len(hashes) {
		return 0, errs.New(errs.InvariantViolation, "chunks/vectors/hashes length mismatch")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errs.Wrap(errs.StoreError, "begin save-chunks transaction", err)
	}
	defer tx.Rollback()

	var documentID uuid.UUID
	if err := tx.GetContext(ctx, &documentID, `SELECT id FROM documents WHERE file_hash = $1`, fileHash); err != nil {
		return 0, errs.Wrap(errs.NotFound, fmt.Sprintf("document for file_hash %q", fileHash), err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (document_id, chunk_text, embedding_hash, embedding, chunk_page_num)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (embedding_hash) DO NOTHING
	`)
	if err != nil {
		return 0, errs.Wrap(errs.StoreError, "prepare insert embedding", err)
	}
	defer stmt.Close()

	var inserted int64
	for i, c := range chunks {
		res, err := stmt.ExecContext(ctx, documentID, c.Text, hashToText(hashes[i]), pgvector.NewVector(vectors[i]), c.PageNum)
		if err != nil {
			return 0, errs.Wrap(errs.StoreError, "insert embedding", err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, errs.Wrap(errs.StoreError, "commit save-chunks transaction", err)
	}
	return inserted, nil
}

// pgChunkRow is the struct-scan target for GetChunksByHashes, tagged for
// sqlx.SelectContext instead of a manual column-by-column rows.Scan.
type pgChunkRow struct {
	EmbeddingHash string `db:"embedding_hash"`
	ChunkText     string `db:"chunk_text"`
	ChunkPageNum  int    `db:"chunk_page_num"`
	FilePath      string `db:"file_path"`
	FileName      string `db:"file_name"`
	Title         string `db:"title"`
	Author        string `db:"author"`
	PageCount     int    `db:"page_count"`
}

func (s *postgresStore) GetChunksByHashes(ctx context.Context, hashes []uint64) (map[uint64]ChunkMeta, error) {
	out := make(map[uint64]ChunkMeta, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}

	texts := make([]string, len(hashes))
	for i, h := range hashes {
		texts[i] = hashToText(h)
	}

	var rows []pgChunkRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT e.embedding_hash, e.chunk_text, e.chunk_page_num,
		       d.file_path, d.file_name, d.title, d.author, d.page_count
		FROM embeddings e
		JOIN documents d ON d.id = e.document_id
		WHERE e.embedding_hash = ANY($1)
	`, pq.Array(texts))
	if err != nil {
		return nil, errs.Wrap(errs.StoreError, "get chunks by hashes", err)
	}

	for _, row := range rows {
		h, err := textToHash(row.EmbeddingHash)
		if err != nil {
			continue
		}
		meta := ChunkMeta{
			Text:      row.ChunkText,
			PageNum:   row.ChunkPageNum,
			FilePath:  row.FilePath,
			FileName:  row.FileName,
			Title:     row.Title,
			Author:    row.Author,
			PageCount: row.PageCount,
		}
		clampPageNum(&meta)
		out[h] = meta
	}
	return out, nil
}

// pgSimilarRow is the struct-scan target for SearchSimilarVectors.
type pgSimilarRow struct {
	EmbeddingHash string  `db:"embedding_hash"`
	ChunkText     string  `db:"chunk_text"`
	Similarity    float32 `db:"similarity"`
}

func (s *postgresStore) SearchSimilarVectors(ctx context.Context, q []float32, k int) ([]SimilarResult, error) {
	var rows []pgSimilarRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT embedding_hash, chunk_text, 1 - (embedding <=> $1) AS similarity
		FROM embeddings
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(q), k)
	if err != nil {
		return nil, errs.Wrap(errs.StoreError, "search similar vectors", err)
	}

	out := make([]SimilarResult, 0, len(rows))
	for _, row := range rows {
		h, err := textToHash(row.EmbeddingHash)
		if err != nil {
			continue
		}
		out = append(out, SimilarResult{Hash: h, Text: row.ChunkText, Similarity: row.Similarity})
	}
	return out, nil
}

func (s *postgresStore) GetModelStamp(ctx context.Context) (config.DBState, bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM config WHERE key LIKE 'embed_%' OR key LIKE 'chat_%'`)
	if err != nil {
		return config.DBState{}, false, errs.Wrap(errs.StoreError, "read model stamp", err)
	}
	defer rows.Close()

	kv := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return config.DBState{}, false, errs.Wrap(errs.StoreError, "scan model stamp row", err)
		}
		kv[k] = v
	}
	if err := rows.Err(); err != nil {
		return config.DBState{}, false, err
	}
	return modelStampFromKV(kv), len(kv) > 0, nil
}

func (s *postgresStore) SaveModelStamp(ctx context.Context, state config.DBState) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.StoreError, "begin save-model-stamp transaction", err)
	}
	defer tx.Rollback()

	for k, v := range modelStampKV(state) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO config (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value
		`, k, v); err != nil {
			return errs.Wrap(errs.StoreError, "save model stamp", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.StoreError, "commit save-model-stamp transaction", err)
	}
	return nil
}

func (s *postgresStore) Close() error {
	return s.db.Close()
}
