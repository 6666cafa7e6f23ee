package store

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/GonzoDMX/rag-anywhere/internal/config"
	"github.com/GonzoDMX/rag-anywhere/internal/errs"
	"github.com/GonzoDMX/rag-anywhere/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// sqliteSchema narrows the teacher's schema_def.go down to the two
// tables spec.md §4.K actually names (documents, embeddings), plus the
// config key/value table and the embeddings_fts keyword index. The
// embedding column stays a BLOB
// of models.Float32ToBytes output, since SQLite has no native vector
// type; SearchSimilarVectors compensates with an in-process cosine scan,
// acceptable for the embedded/offline fallback role this backend plays.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS config (
    key TEXT PRIMARY KEY,
    value TEXT
);

CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    file_hash TEXT UNIQUE NOT NULL,
    file_path TEXT NOT NULL,
    file_name TEXT NOT NULL,
    title TEXT,
    author TEXT,
    subject TEXT,
    keywords TEXT,
    creator TEXT,
    producer TEXT,
    page_count INTEGER,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS embeddings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    chunk_text TEXT NOT NULL,
    embedding_hash TEXT UNIQUE NOT NULL,
    embedding BLOB NOT NULL,
    chunk_page_num INTEGER NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TRIGGER IF NOT EXISTS documents_set_updated_at
AFTER UPDATE ON documents
BEGIN
    UPDATE documents SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
END;

CREATE INDEX IF NOT EXISTS idx_embeddings_document ON embeddings(document_id);

-- Keyword-search side channel, adapted from the teacher's chunks_fts
-- external-content FTS5 table onto this schema's embeddings.chunk_text.
CREATE VIRTUAL TABLE IF NOT EXISTS embeddings_fts USING fts5(
    chunk_text,
    content='embeddings',
    content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS embeddings_fts_ai AFTER INSERT ON embeddings BEGIN
    INSERT INTO embeddings_fts(rowid, chunk_text) VALUES (new.id, new.chunk_text);
END;
CREATE TRIGGER IF NOT EXISTS embeddings_fts_ad AFTER DELETE ON embeddings BEGIN
    INSERT INTO embeddings_fts(embeddings_fts, rowid, chunk_text) VALUES('delete', old.id, old.chunk_text);
END;
CREATE TRIGGER IF NOT EXISTS embeddings_fts_au AFTER UPDATE ON embeddings BEGIN
    INSERT INTO embeddings_fts(embeddings_fts, rowid, chunk_text) VALUES('delete', old.id, old.chunk_text);
    INSERT INTO embeddings_fts(rowid, chunk_text) VALUES (new.id, new.chunk_text);
END;
`

type sqliteStore struct {
	db   *sqlx.DB
	dims int
}

// openSQLite opens (creating parent directories as needed) the SQLite
// database at path. Grounded on the teacher's store.Manager, which
// always creates its database directory tree before opening; jmoiron/sqlx
// is turkprogrammer-RAG's driver wrapper for the same backend.
func openSQLite(path string, dims int) (Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errs.Wrap(errs.IoError, "create sqlite database directory", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, errs.Wrap(errs.StoreError, "open sqlite database", err)
	}
	return &sqliteStore{db: db, dims: dims}, nil
}

func (s *sqliteStore) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return errs.Wrap(errs.StoreError, "initialize sqlite schema", err)
	}
	return nil
}

func (s *sqliteStore) UpsertDocument(ctx context.Context, doc models.Document) error {
	id := doc.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, file_hash, file_path, file_name, title, author, subject, keywords, creator, producer, page_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_hash) DO UPDATE SET
			file_path = excluded.file_path,
			file_name = excluded.file_name,
			title = excluded.title,
			author = excluded.author,
			subject = excluded.subject,
			keywords = excluded.keywords,
			creator = excluded.creator,
			producer = excluded.producer,
			page_count = excluded.page_count
	`, id.String(), doc.FileFingerprint, doc.FilePath, doc.FileName,
		doc.Title, doc.Author, doc.Subject, doc.Keywords, doc.Creator, doc.Producer, doc.PageCount)
	if err != nil {
		return errs.Wrap(errs.StoreError, "upsert document", err)
	}
	return nil
}

func (s *sqliteStore) DeleteByFileHash(ctx context.Context, fileHash string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE file_hash = ?`, fileHash); err != nil {
		return errs.Wrap(errs.StoreError, "delete document by file_hash", err)
	}
	return nil
}

func (s *sqliteStore) SaveChunks(ctx context.Context, fileHash string, chunks []models.Chunk, vectors [][]float32, hashes []uint64) (int64, error) {
	if len(chunks) != len(vectors) || len(chunks) != len(hashes) {
		return 0, errs.New(errs.InvariantViolation, "chunks/vectors/hashes length mismatch")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errs.Wrap(errs.StoreError, "begin save-chunks transaction", err)
	}
	defer tx.Rollback()

	var documentID string
	if err := tx.GetContext(ctx, &documentID, `SELECT id FROM documents WHERE file_hash = ?`, fileHash); err != nil {
		return 0, errs.Wrap(errs.NotFound, fmt.Sprintf("document for file_hash %q", fileHash), err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (document_id, chunk_text, embedding_hash, embedding, chunk_page_num)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(embedding_hash) DO NOTHING
	`)
	if err != nil {
		return 0, errs.Wrap(errs.StoreError, "prepare insert embedding", err)
	}
	defer stmt.Close()

	var inserted int64
	for i, c := range chunks {
		res, err := stmt.ExecContext(ctx, documentID, c.Text, hashToText(hashes[i]), models.Float32ToBytes(vectors[i]), c.PageNum)
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

func (s *sqliteStore) GetChunksByHashes(ctx context.Context, hashes []uint64) (map[uint64]ChunkMeta, error) {
	out := make(map[uint64]ChunkMeta, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}

	texts := make([]interface{}, len(hashes))
	byText := make(map[string]uint64, len(hashes))
	for i, h := range hashes {
		t := hashToText(h)
		texts[i] = t
		byText[t] = h
	}

	query, args, err := sqlx.In(`
		SELECT e.embedding_hash, e.chunk_text, e.chunk_page_num,
		       d.file_path, d.file_name, d.title, d.author, d.page_count
		FROM embeddings e
		JOIN documents d ON d.id = e.document_id
		WHERE e.embedding_hash IN (?)
	`, texts)
	if err != nil {
		return nil, errs.Wrap(errs.StoreError, "build hash lookup query", err)
	}

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, errs.Wrap(errs.StoreError, "get chunks by hashes", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hashStr string
		var meta ChunkMeta
		if err := rows.Scan(&hashStr, &meta.Text, &meta.PageNum, &meta.FilePath, &meta.FileName, &meta.Title, &meta.Author, &meta.PageCount); err != nil {
			return nil, errs.Wrap(errs.StoreError, "scan chunk row", err)
		}
		if h, ok := byText[hashStr]; ok {
			clampPageNum(&meta)
			out[h] = meta
		}
	}
	return out, rows.Err()
}

func (s *sqliteStore) SearchSimilarVectors(ctx context.Context, q []float32, k int) ([]SimilarResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT embedding_hash, chunk_text, embedding FROM embeddings`)
	if err != nil {
		return nil, errs.Wrap(errs.StoreError, "scan embeddings for similarity search", err)
	}
	defer rows.Close()

	var all []SimilarResult
	for rows.Next() {
		var hashStr, text string
		var blob []byte
		if err := rows.Scan(&hashStr, &text, &blob); err != nil {
			return nil, errs.Wrap(errs.StoreError, "scan embedding row", err)
		}
		h, err := textToHash(hashStr)
		if err != nil {
			continue
		}
		vec := models.BytesToFloat32(blob)
		all = append(all, SimilarResult{Hash: h, Text: text, Similarity: cosine(q, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Similarity > all[j].Similarity })
	if k < len(all) {
		all = all[:k]
	}
	return all, nil
}

// SearchKeyword ranks chunks by FTS5 bm25 relevance to query, the
// keyword-search side channel adapted from the teacher's chunks_fts
// table. bm25 scores are negative and ascending by relevance in SQLite,
// so the sign is flipped to line up with SimilarResult's
// higher-is-better convention used by vector search. An empty or
// whitespace-only query matches nothing and returns no results.
func (s *sqliteStore) SearchKeyword(ctx context.Context, query string, k int) ([]SimilarResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.embedding_hash, e.chunk_text, bm25(embeddings_fts) AS rank
		FROM embeddings_fts
		JOIN embeddings e ON e.id = embeddings_fts.rowid
		WHERE embeddings_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, k)
	if err != nil {
		return nil, errs.Wrap(errs.StoreError, "keyword search", err)
	}
	defer rows.Close()

	var out []SimilarResult
	for rows.Next() {
		var hashStr, text string
		var rank float64
		if err := rows.Scan(&hashStr, &text, &rank); err != nil {
			return nil, errs.Wrap(errs.StoreError, "scan keyword search row", err)
		}
		h, err := textToHash(hashStr)
		if err != nil {
			continue
		}
		out = append(out, SimilarResult{Hash: h, Text: text, Similarity: float32(-rank)})
	}
	return out, rows.Err()
}

func (s *sqliteStore) GetModelStamp(ctx context.Context) (config.DBState, bool, error) {
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

func (s *sqliteStore) SaveModelStamp(ctx context.Context, state config.DBState) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.StoreError, "begin save-model-stamp transaction", err)
	}
	defer tx.Rollback()

	for k, v := range modelStampKV(state) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO config (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, v); err != nil {
			return errs.Wrap(errs.StoreError, "save model stamp", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.StoreError, "commit save-model-stamp transaction", err)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// modelStampKV renders a DBState as the key/value rows every backend's
// config table stores it under.
func modelStampKV(state config.DBState) map[string]string {
	return map[string]string{
		"embed_model_id":      state.EmbedID,
		"embed_model_version": state.EmbedVersion,
		"embed_dimension":     strconv.Itoa(state.EmbedDim),
		"chat_model_id":       state.ChatID,
		"chat_model_version":  state.ChatVersion,
	}
}

// modelStampFromKV assembles a DBState from a config table's key/value
// rows, shared by both backends' GetModelStamp.
func modelStampFromKV(kv map[string]string) config.DBState {
	state := config.DBState{
		EmbedID:      kv["embed_model_id"],
		EmbedVersion: kv["embed_model_version"],
		ChatID:       kv["chat_model_id"],
		ChatVersion:  kv["chat_model_version"],
	}
	if dim, err := strconv.Atoi(kv["embed_dimension"]); err == nil {
		state.EmbedDim = dim
	}
	return state
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
