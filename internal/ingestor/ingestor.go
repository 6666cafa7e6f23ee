// Package ingestor implements spec.md §4.N's addCorpus: resolving a
// path to a set of PDFs, skipping files whose fingerprint already has a
// dump, and running each remaining file through
// PdfReader→Chunker→EmbeddingService→Store/VectorDump.
//
// File-type gating is narrowed from the teacher's internal/ingest
// (which sniffed text/rtf/doc/docx/pdf by magic number) down to the
// ".pdf" extension only, since PDF is the only format spec.md names.
// The bounded worker fan-out is grounded on the teacher's
// ipc.WorkerPool's fixed-size goroutine pattern, reworked onto
// golang.org/x/sync/errgroup with continue-on-error semantics.
package ingestor

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/GonzoDMX/rag-anywhere/internal/chunker"
	"github.com/GonzoDMX/rag-anywhere/internal/embedservice"
	"github.com/GonzoDMX/rag-anywhere/internal/errs"
	"github.com/GonzoDMX/rag-anywhere/internal/fingerprint"
	"github.com/GonzoDMX/rag-anywhere/internal/models"
	"github.com/GonzoDMX/rag-anywhere/internal/pathresolver"
	"github.com/GonzoDMX/rag-anywhere/internal/pdfreader"
	"github.com/GonzoDMX/rag-anywhere/internal/store"
	"github.com/GonzoDMX/rag-anywhere/internal/vecdump"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Config bounds ingestion concurrency and chunking. IngestThreads
// defaults to ADD_CORPUS_N_THREADS=4 per spec.md §5 when unset.
type Config struct {
	CorpusDir     string
	IngestThreads int
	Chunking      chunker.Config
}

var DefaultConfig = Config{IngestThreads: 4, Chunking: chunker.DefaultConfig}

// Ingestor orchestrates the addCorpus pipeline.
type Ingestor struct {
	store store.Store
	embed *embedservice.Service
	cfg   Config
}

func New(s store.Store, embed *embedservice.Service, cfg Config) *Ingestor {
	if cfg.IngestThreads <= 0 {
		cfg.IngestThreads = DefaultConfig.IngestThreads
	}
	if cfg.Chunking == (chunker.Config{}) {
		cfg.Chunking = DefaultConfig.Chunking
	}
	return &Ingestor{store: s, embed: embed, cfg: cfg}
}

// AddCorpus resolves path to a set of PDFs and ingests every one not
// already represented by a dump under cfg.CorpusDir, per spec.md §4.N.
func (ig *Ingestor) AddCorpus(ctx context.Context, path string) (*models.WorkResult, error) {
	resolved := pathresolver.Resolve(path)

	files, err := collectPDFs(resolved)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return &models.WorkResult{OK: true, SuccessMessage: "no PDF files found at path"}, nil
	}

	fingerprints, fpErrs := fingerprint.BatchN(files, ig.cfg.IngestThreads)

	existing, err := existingDumpFingerprints(ig.cfg.CorpusDir)
	if err != nil {
		return nil, err
	}

	result := &models.WorkResult{OK: true}
	var mu sync.Mutex
	var lastErr string

	for failedPath, fpErr := range fpErrs {
		result.FilesFailed++
		result.Warnings = append(result.Warnings, fmt.Sprintf("fingerprint %s: %v", failedPath, fpErr))
		lastErr = fpErr.Error()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ig.cfg.IngestThreads)

	for _, file := range files {
		fp, ok := fingerprints[file]
		if !ok {
			continue
		}
		if _, skip := existing[fp]; skip {
			mu.Lock()
			result.FilesSkipped++
			mu.Unlock()
			continue
		}

		file, fp := file, fp
		g.Go(func() error {
			if err := ig.ingestOne(gctx, file, fp); err != nil {
				mu.Lock()
				result.FilesFailed++
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", file, err))
				lastErr = err.Error()
				mu.Unlock()
				log.Printf("ingestor: %s: %v", file, err)
				return nil // continue-on-error: don't abort the group
			}
			mu.Lock()
			result.FilesProcessed++
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	if result.FilesProcessed == 0 && result.FilesFailed == 0 {
		result.SuccessMessage = "nothing to do"
	} else if result.FilesFailed > 0 {
		result.ErrorMessage = lastErr
	}

	return result, nil
}

func (ig *Ingestor) ingestOne(ctx context.Context, file, fileHash string) error {
	extracted, err := pdfreader.Extract(file)
	if err != nil {
		return err
	}

	if err := ig.store.DeleteByFileHash(ctx, fileHash); err != nil {
		return errs.Wrap(errs.StoreError, "clear stale document before re-ingest", err)
	}

	doc := models.Document{
		ID:              uuid.New(),
		FileFingerprint: fileHash,
		FilePath:        file,
		FileName:        filepath.Base(file),
		Title:           extracted.Metadata.Title,
		Author:          extracted.Metadata.Author,
		Subject:         extracted.Metadata.Subject,
		Keywords:        extracted.Metadata.Keywords,
		Creator:         extracted.Metadata.Creator,
		Producer:        extracted.Metadata.Producer,
		PageCount:       extracted.Metadata.PageCount,
	}
	if err := ig.store.UpsertDocument(ctx, doc); err != nil {
		return err
	}

	chunks := chunker.Split(extracted.Pages, ig.cfg.Chunking)
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embedded, warnings, err := ig.embed.Embed(ctx, texts)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Printf("ingestor: %s: embedding warning at chunk %d: %s", file, w.Index, w.Message)
	}
	if len(embedded) == 0 {
		return nil
	}

	modelChunks := make([]models.Chunk, len(chunks))
	for i, c := range chunks {
		modelChunks[i] = models.Chunk{Text: c.Text, PageNum: c.PageNum}
	}

	savedChunks, vectors, hashes := reconcileEmbeddings(modelChunks, embedded)

	if _, err := ig.store.SaveChunks(ctx, fileHash, savedChunks, vectors, hashes); err != nil {
		return err
	}

	return vecdump.Write(dumpPath(ig.cfg.CorpusDir, fileHash), vectors, hashes)
}

// reconcileEmbeddings pairs each embedservice.Result back to the chunk it
// was produced from via r.Index, the chunk's position before any
// warnings dropped entries out of embedded. embedded is not 1:1 with
// chunks once any input is skipped or a batch fails, so every lookup
// keys off r.Index rather than its position in embedded.
func reconcileEmbeddings(chunks []models.Chunk, embedded []embedservice.Result) ([]models.Chunk, [][]float32, []uint64) {
	savedChunks := make([]models.Chunk, len(embedded))
	vectors := make([][]float32, len(embedded))
	hashes := make([]uint64, len(embedded))
	for i, r := range embedded {
		savedChunks[i] = models.Chunk{Text: chunks[r.Index].Text, PageNum: chunks[r.Index].PageNum}
		vectors[i] = r.Vector
		hashes[i] = r.Hash
	}
	return savedChunks, vectors, hashes
}

func dumpPath(dir, fp string) string {
	return filepath.Join(dir, fp+".vecdump")
}

func existingDumpFingerprints(dir string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.IoError, "list corpus directory", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".vecdump") {
			continue
		}
		out[strings.TrimSuffix(e.Name(), ".vecdump")] = struct{}{}
	}
	return out, nil
}

// collectPDFs resolves path per spec.md §4.N.1: a single .pdf file, or
// every .pdf found by recursing a directory.
func collectPDFs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errs.Wrap(errs.IoError, "resolve corpus path", err)
	}

	if !info.IsDir() {
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil, errs.New(errs.ConfigError, "path is not a .pdf file or a directory")
		}
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".pdf") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.IoError, "walk corpus directory", err)
	}
	return files, nil
}
