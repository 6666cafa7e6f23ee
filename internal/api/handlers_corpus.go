package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/GonzoDMX/rag-anywhere/internal/models"
)

// handleAddCorpus - POST /api/v1/corpus/add
// Ingests a path already reachable by the server process (a PDF or a
// directory of PDFs), per spec.md §6's addCorpus(path).
func (s *Server) handleAddCorpus(w http.ResponseWriter, r *http.Request) {
	var req AddCorpusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Path) == "" {
		errorResponse(w, http.StatusBadRequest, "missing or invalid 'path'")
		return
	}

	result, err := s.svc.AddCorpus(r.Context(), req.Path)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, StandardResponse{Success: result.OK, Data: toAddCorpusResponse(result)})
}

// handleUploadCorpus - POST /api/v1/corpus/upload
// Accepts a multipart PDF upload, stages it to disk, and ingests it the
// same way handleAddCorpus ingests a server-local path.
func (s *Server) handleUploadCorpus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		errorResponse(w, http.StatusBadRequest, "file too large or invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "missing 'file' field")
		return
	}
	defer file.Close()

	if !strings.EqualFold(".pdf", extOf(header.Filename)) {
		errorResponse(w, http.StatusUnsupportedMediaType, "only .pdf uploads are supported")
		return
	}

	path, err := saveFileToStaging(file, header.Filename, filepath.Join(s.cfg.CorpusDir, ".staging"))
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	defer os.Remove(path)

	result, err := s.svc.AddCorpus(r.Context(), path)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, StandardResponse{Success: result.OK, Data: toAddCorpusResponse(result)})
}

// handleDeleteCorpus - POST /api/v1/corpus/delete
func (s *Server) handleDeleteCorpus(w http.ResponseWriter, r *http.Request) {
	var req DeleteCorpusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.FileFingerprint) == "" {
		errorResponse(w, http.StatusBadRequest, "missing or invalid 'file_fingerprint'")
		return
	}

	if err := s.svc.DeleteCorpus(r.Context(), req.FileFingerprint); err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, StandardResponse{Success: true, Message: "document removed"})
}

func toAddCorpusResponse(r *models.WorkResult) AddCorpusResponse {
	return AddCorpusResponse{
		OK:             r.OK,
		ErrorMessage:   r.ErrorMessage,
		SuccessMessage: r.SuccessMessage,
		FilesProcessed: r.FilesProcessed,
		FilesSkipped:   r.FilesSkipped,
		FilesFailed:    r.FilesFailed,
		Warnings:       r.Warnings,
	}
}

func extOf(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return ""
	}
	return filename[i:]
}
