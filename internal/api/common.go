package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// jsonResponse sends a standard JSON response.
func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// errorResponse sends a standard error response.
func errorResponse(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, StandardResponse{
		Success: false,
		Error:   msg,
	})
}

// saveFileToStaging writes an uploaded file under stagingDir (a
// subdirectory of the server's configured corpus directory, so staged
// uploads and the ingested corpus live on the same filesystem/volume)
// and returns the path, so it can be handed to Service.AddCorpus like
// any other filesystem path. Callers are responsible for removing the
// file once AddCorpus has ingested it.
func saveFileToStaging(file io.Reader, filename, stagingDir string) (string, error) {
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create staging dir: %w", err)
	}

	timestamp := time.Now().UnixNano()
	safeName := fmt.Sprintf("%d_%s", timestamp, filepath.Base(filename))
	path := filepath.Join(stagingDir, safeName)

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return path, nil
}
