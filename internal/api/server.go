// Package api implements the HTTP surface over pkg/tldr.Service,
// grounded on the teacher's cmd/server/main.go router and
// internal/api envelope (StandardResponse, jsonResponse, errorResponse,
// saveFileToStaging). Handlers are methods on Server instead of free
// functions closing over package globals, since this module actually
// wires a live Service instead of leaving every handler a placeholder.
// internal/api/handlers_kg.go, handlers_db.go, and the code/fact/
// keyword/hybrid/kg variants of handlers_search.go are dropped: no
// knowledge graph, multi-database switching, or standalone keyword or
// hybrid search operation exists in this module (keyword search is only
// the retriever's internal last fallback), and the teacher's own
// versions were unbacked stubs with nothing to adapt them onto.
package api

import (
	"log"
	"net/http"
	"time"

	"github.com/GonzoDMX/rag-anywhere/internal/config"
	"github.com/GonzoDMX/rag-anywhere/pkg/tldr"
)

// Server binds a tldr.Service to the HTTP API surface.
type Server struct {
	svc    *tldr.Service
	cfg    *config.Config
	logger *log.Logger
}

// NewServer builds a Server bound to svc.
func NewServer(svc *tldr.Service, cfg *config.Config, logger *log.Logger) *Server {
	return &Server{svc: svc, cfg: cfg, logger: logger}
}

// Routes builds the request router and wraps it in the logging/CORS
// middleware chain, grounded on the teacher's MiddlewareChain.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/system/status", s.handleStatus)

	mux.HandleFunc("POST /api/v1/corpus/add", s.handleAddCorpus)
	mux.HandleFunc("POST /api/v1/corpus/upload", s.handleUploadCorpus)
	mux.HandleFunc("POST /api/v1/corpus/delete", s.handleDeleteCorpus)

	mux.HandleFunc("POST /api/v1/query", s.handleQuery)

	return s.middlewareChain(mux)
}

func (s *Server) middlewareChain(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)

		s.logger.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
