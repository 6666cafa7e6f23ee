// Package tldr is the public facade spec.md §6 names: Init/Shutdown and
// the four corpus/query operations, wired together the way the
// teacher's cmd/server/main.go lays out initialization (logger →
// dependencies → router), generalized here into a reusable constructor
// that callers (the HTTP server, the CLI) both build on instead of
// duplicating.
package tldr

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/GonzoDMX/rag-anywhere/internal/chunker"
	"github.com/GonzoDMX/rag-anywhere/internal/config"
	"github.com/GonzoDMX/rag-anywhere/internal/embedservice"
	"github.com/GonzoDMX/rag-anywhere/internal/engine"
	"github.com/GonzoDMX/rag-anywhere/internal/errs"
	"github.com/GonzoDMX/rag-anywhere/internal/ingestor"
	"github.com/GonzoDMX/rag-anywhere/internal/ipc"
	"github.com/GonzoDMX/rag-anywhere/internal/kernel"
	"github.com/GonzoDMX/rag-anywhere/internal/models"
	"github.com/GonzoDMX/rag-anywhere/internal/rag"
	"github.com/GonzoDMX/rag-anywhere/internal/retriever"
	"github.com/GonzoDMX/rag-anywhere/internal/store"
)

// Service is one initialized instance of the retrieval-augmented
// question-answering engine: an embedding engine, a chat engine, a
// relational store, and the ingestion/retrieval/generation components
// built on top of them.
type Service struct {
	cfg         *config.Config
	logger      *log.Logger
	store       store.Store
	embedEngine engine.EmbeddingEngine
	chatEngine  engine.ChatEngine
	embed       *embedservice.Service
	ingestor    *ingestor.Ingestor
	coordinator *rag.Coordinator
}

// Init loads model backends and the relational store per cfg and wires
// every internal package into one Service. chat_model_path and
// embeddings_model_path are each spawned directly as a self-contained
// worker process (the "inference artifact" spec.md §6 names is the
// executable itself, not a script invoked by a separate interpreter),
// per DESIGN.md's Open Question resolution.
func Init(cfg *config.Config) (*Service, error) {
	logger := log.New(os.Stdout, "[rag-anywhere] ", log.LstdFlags)

	logger.Printf("initializing store: %s", redactConnString(cfg.StoreConnString))
	st, err := store.Open(cfg.StoreConnString, cfg.EmbeddingDimension)
	if err != nil {
		return nil, errs.Wrap(errs.ConfigError, "open store", err)
	}
	if err := st.Initialize(context.Background()); err != nil {
		return nil, errs.Wrap(errs.StoreError, "initialize store schema", err)
	}
	if err := checkModelCompatibility(context.Background(), st, logger); err != nil {
		return nil, err
	}

	logger.Printf("starting embedding workers: %s", cfg.EmbeddingsModelPath)
	embedEngine := engine.NewProcessEmbeddingEngine(engine.ProcessConfig{
		Spawner:     ipc.Spawner{Command: cfg.EmbeddingsModelPath},
		NumContexts: cfg.Concurrency.EmbedMaxCtx,
		MaxUses:     0,
	}, cfg.EmbeddingDimension)

	logger.Printf("starting chat workers: %s", cfg.ChatModelPath)
	chatEngine := engine.NewProcessChatEngine(engine.ProcessConfig{
		Spawner:     ipc.Spawner{Command: cfg.ChatModelPath},
		NumContexts: cfg.Concurrency.ChatMaxCtx,
		MaxUses:     0,
	})

	embed := embedservice.New(embedEngine, embedservice.Config{MaxBatchSize: cfg.Concurrency.EmbedThreads * 4})

	ing := ingestor.New(st, embed, ingestor.Config{
		CorpusDir:     cfg.CorpusDir,
		IngestThreads: cfg.Concurrency.IngestThreads,
		Chunking: chunker.Config{
			MaxCharsPerBatch: cfg.Chunking.MaxChunkSize,
			NOverlap:         cfg.Chunking.Overlap,
		},
	})

	r := retriever.New(kernel.NewBruteForceKernel(), st)
	coord := rag.New(embed, r, chatEngine, rag.Config{
		TopK:                cfg.Retrieval.KTop,
		SystemPrompt:        cfg.Chat.SystemPrompt,
		MaxGenerationTokens: cfg.Chat.MaxGenerationTokens,
	})

	return &Service{
		cfg:         cfg,
		logger:      logger,
		store:       st,
		embedEngine: embedEngine,
		chatEngine:  chatEngine,
		embed:       embed,
		ingestor:    ing,
		coordinator: coord,
	}, nil
}

// Shutdown tears down both engine worker pools and closes the store.
// In-flight engine calls are not cancelled, but Shutdown does not wait
// for them either: ContextPool.Close destroys idle workers at once and
// returns, and each leased worker is destroyed when its lease is
// released.
func (s *Service) Shutdown() {
	s.logger.Println("shutting down")
	if err := s.embedEngine.Close(); err != nil {
		s.logger.Printf("close embedding engine: %v", err)
	}
	if err := s.chatEngine.Close(); err != nil {
		s.logger.Printf("close chat engine: %v", err)
	}
	if err := s.store.Close(); err != nil {
		s.logger.Printf("close store: %v", err)
	}
}

// AddCorpus ingests every PDF found at path, per spec.md §4.N.
func (s *Service) AddCorpus(ctx context.Context, path string) (*models.WorkResult, error) {
	return s.ingestor.AddCorpus(ctx, path)
}

// DeleteCorpus removes a previously ingested document and its chunks by
// file fingerprint, then removes that fingerprint's .vecdump from the
// corpus directory, so the kernel no longer returns its hashes and the
// next addCorpus of the same file ingests it again.
func (s *Service) DeleteCorpus(ctx context.Context, fileFingerprint string) error {
	if err := s.store.DeleteByFileHash(ctx, fileFingerprint); err != nil {
		return err
	}
	if s.cfg == nil {
		return nil
	}
	dump := filepath.Join(s.cfg.CorpusDir, filepath.Base(fileFingerprint)+".vecdump")
	if err := os.Remove(dump); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.IoError, "remove vector dump", err)
	}
	return nil
}

// QueryRag answers query against the corpus under corpusDir, per
// spec.md §4.O.
func (s *Service) QueryRag(ctx context.Context, query, corpusDir string) (models.RagResult, error) {
	return s.coordinator.QueryRag(ctx, query, corpusDir)
}

// FormatRagResult renders r as human-readable text, per spec.md §6's
// formatRagResult.
func FormatRagResult(r models.RagResult) string {
	return rag.FormatRagResult(r)
}

// checkModelCompatibility stamps a freshly initialized store with the
// running binary's model identity, or, on a previously stamped store,
// compares the stamp against config.CurrentDefaults and refuses to start
// if the stored vectors were produced by a different embedding model.
// A chat model change only logs an advisory and re-stamps the store,
// per config.CheckCompatibility's asymmetry.
func checkModelCompatibility(ctx context.Context, st store.Store, logger *log.Logger) error {
	current := config.DBState{
		EmbedID:      config.CurrentDefaults.EmbeddingModel.ID,
		EmbedVersion: config.CurrentDefaults.EmbeddingModel.Version,
		EmbedDim:     config.CurrentDefaults.EmbeddingModel.Dimension,
		ChatID:       config.CurrentDefaults.ChatModel.ID,
		ChatVersion:  config.CurrentDefaults.ChatModel.Version,
	}

	stamp, found, err := st.GetModelStamp(ctx)
	if err != nil {
		return errs.Wrap(errs.StoreError, "read model stamp", err)
	}
	if !found {
		logger.Println("stamping fresh store with current model identity")
		if err := st.SaveModelStamp(ctx, current); err != nil {
			return errs.Wrap(errs.StoreError, "stamp store with model identity", err)
		}
		return nil
	}

	status, issues := config.CheckCompatibility(stamp)
	for _, issue := range issues {
		logger.Printf("model compatibility: %s", issue)
	}
	switch status {
	case config.StatusIncompatible:
		return errs.New(errs.DimensionMismatch, "store was built with a different embedding model; re-ingest the corpus or point embeddings_model_path back at "+stamp.EmbedID)
	case config.StatusUpdateAvailable:
		logger.Println("chat model has changed since this store was last stamped; answers will reflect the new model")
		return st.SaveModelStamp(ctx, current)
	}
	return nil
}

func redactConnString(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}
