package api

import "net/http"

// handleHealth - GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleStatus - GET /api/v1/system/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, StandardResponse{
		Success: true,
		Data: StatusResponse{
			Status:             "healthy",
			Version:            "0.1.0",
			EmbeddingDimension: s.cfg.EmbeddingDimension,
			CorpusDir:          s.cfg.CorpusDir,
		},
	})
}
