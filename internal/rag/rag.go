// Package rag implements spec.md §4.O's RagCoordinator: embed the query,
// retrieve context, assemble the role-tagged prompt template, and
// invoke the ChatEngine for a grounded answer.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/GonzoDMX/rag-anywhere/internal/embedservice"
	"github.com/GonzoDMX/rag-anywhere/internal/engine"
	"github.com/GonzoDMX/rag-anywhere/internal/models"
	"github.com/GonzoDMX/rag-anywhere/internal/retriever"
)

// Config bounds retrieval and generation.
type Config struct {
	TopK                int
	SystemPrompt        string
	MaxGenerationTokens int
}

var DefaultConfig = Config{
	TopK:                5,
	SystemPrompt:        "You are a helpful assistant. Answer the user's question using only the provided context. If the context does not contain the answer, say so.",
	MaxGenerationTokens: 512,
}

// Coordinator ties embedding, retrieval, and generation together behind
// one queryRag operation.
type Coordinator struct {
	embed     *embedservice.Service
	retriever *retriever.Retriever
	chat      engine.ChatEngine
	cfg       Config
}

func New(embed *embedservice.Service, r *retriever.Retriever, chat engine.ChatEngine, cfg Config) *Coordinator {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig.TopK
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultConfig.SystemPrompt
	}
	if cfg.MaxGenerationTokens <= 0 {
		cfg.MaxGenerationTokens = DefaultConfig.MaxGenerationTokens
	}
	return &Coordinator{embed: embed, retriever: r, chat: chat, cfg: cfg}
}

// QueryRag implements spec.md §4.O's algorithm: embed the query,
// retrieve top-K context, assemble the prompt, and generate a response.
// An empty embedding or empty context both short-circuit to an empty
// RagResult with a diagnostic, per §7's query-time failure policy.
func (c *Coordinator) QueryRag(ctx context.Context, query, corpusDir string) (models.RagResult, error) {
	results, _, err := c.embed.Embed(ctx, []string{query})
	if err != nil {
		return models.RagResult{Diagnostic: fmt.Sprintf("embedding failed: %v", err)}, nil
	}
	if len(results) == 0 {
		return models.RagResult{Diagnostic: "query embedding is empty"}, nil
	}

	chunks, err := c.retriever.Search(ctx, results[0].Vector, query, c.cfg.TopK, corpusDir)
	if err != nil {
		return models.RagResult{Diagnostic: fmt.Sprintf("retrieval failed: %v", err)}, nil
	}
	if len(chunks) == 0 {
		return models.RagResult{Diagnostic: "no context found for query"}, nil
	}

	contextStr := joinContext(chunks)
	prompt := buildPrompt(c.cfg.SystemPrompt, contextStr, query)

	response, err := c.chat.Generate(ctx, prompt, c.cfg.MaxGenerationTokens)
	if err != nil {
		return models.RagResult{Diagnostic: fmt.Sprintf("generation failed: %v", err)}, nil
	}

	return models.RagResult{
		Response:          response,
		Context:           chunks,
		DistinctDocuments: distinctDocuments(chunks),
	}, nil
}

// buildPrompt assembles the fixed role-marker template of spec.md §4.O.4.
func buildPrompt(systemPrompt, contextStr, query string) string {
	var b strings.Builder
	b.WriteString("<|system|>\n")
	b.WriteString(systemPrompt)
	b.WriteString("\n<|context|>\n")
	b.WriteString(contextStr)
	b.WriteString("\n<|user|>\n")
	b.WriteString(query)
	b.WriteString("\n<|assistant|>\n")
	return b.String()
}

func joinContext(chunks []models.ContextChunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, "\n\n")
}

func distinctDocuments(chunks []models.ContextChunk) int {
	seen := make(map[string]struct{})
	for _, c := range chunks {
		seen[c.FilePath] = struct{}{}
	}
	return len(seen)
}

// FormatRagResult renders a RagResult as human-readable text including
// provenance, per the public API surface's formatRagResult.
func FormatRagResult(r models.RagResult) string {
	if r.Diagnostic != "" {
		return fmt.Sprintf("(no answer: %s)", r.Diagnostic)
	}

	var b strings.Builder
	b.WriteString(r.Response)
	if len(r.Context) > 0 {
		b.WriteString("\n\nSources:\n")
		for _, c := range r.Context {
			b.WriteString(fmt.Sprintf("- %s (page %d, similarity %.3f)\n", c.FileName, c.PageNum, c.Similarity))
		}
	}
	return b.String()
}
