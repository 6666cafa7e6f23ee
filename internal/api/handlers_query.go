package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/GonzoDMX/rag-anywhere/internal/models"
	"github.com/GonzoDMX/rag-anywhere/pkg/tldr"
)

// handleQuery - POST /api/v1/query
// Answers req.Query against req.CorpusDir (falling back to the server's
// configured corpus directory), per spec.md §6's queryRag/formatRagResult.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		errorResponse(w, http.StatusBadRequest, "missing or invalid 'query'")
		return
	}

	corpusDir := req.CorpusDir
	if corpusDir == "" {
		corpusDir = s.cfg.CorpusDir
	}

	result, err := s.svc.QueryRag(r.Context(), req.Query, corpusDir)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, StandardResponse{Success: true, Data: toQueryResponse(result)})
}

func toQueryResponse(r models.RagResult) QueryResponse {
	chunks := make([]ContextChunkResponse, len(r.Context))
	for i, c := range r.Context {
		chunks[i] = ContextChunkResponse{
			Text:       c.Text,
			Similarity: c.Similarity,
			FileName:   c.FileName,
			PageNum:    c.PageNum,
		}
	}
	return QueryResponse{
		Response:          r.Response,
		Formatted:         tldr.FormatRagResult(r),
		Context:           chunks,
		DistinctDocuments: r.DistinctDocuments,
		Diagnostic:        r.Diagnostic,
	}
}
