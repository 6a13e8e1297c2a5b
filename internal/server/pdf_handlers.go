package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/MeKo-Tech/sigdet/internal/pdf"
)

// detectPDFHandler processes multi-page PDF detection requests.
// Expects a multipart form with a "pdf" file field and an optional
// "pages" range ("1-3,7").
func (s *Server) detectPDFHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	maxBytes := s.maxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.writeError(w, fmt.Sprintf("failed to parse upload: %v", err), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("pdf")
	if err != nil {
		s.writeError(w, fmt.Sprintf("missing pdf field: %v", err), http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	tempPath, err := saveUpload(file)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer func() { _ = os.Remove(tempPath) }()

	pages, err := pdf.ParsePageRange(r.FormValue("pages"))
	if err != nil {
		s.writeError(w, fmt.Sprintf("invalid page range: %v", err), http.StatusBadRequest)
		return
	}

	reqConfig := parseRequestConfig(r)
	opts := pdf.Options{
		Pages:         pages,
		ConfThreshold: reqConfig.ConfThreshold,
		IoUThreshold:  reqConfig.IoUThreshold,
	}

	start := time.Now()
	result, err := s.pipeline.ProcessPDF(r.Context(), tempPath, opts)
	if err != nil {
		detectRequestsTotal.WithLabelValues("pdf", "error").Inc()
		status := http.StatusInternalServerError
		var pageErr *pdf.PageError
		if !errors.As(err, &pageErr) {
			// Validation failures (not a PDF, bad page range) are
			// client errors.
			status = http.StatusBadRequest
		}
		s.writeJSON(w, status, DocumentResponse{Success: false, Error: err.Error()})
		return
	}
	detectRequestsTotal.WithLabelValues("pdf", "success").Inc()
	detectDuration.WithLabelValues("pdf").Observe(time.Since(start).Seconds())

	s.writeJSON(w, http.StatusOK, DocumentResponse{Success: true, Result: result})
}

// saveUpload spools an uploaded file to a temp path for the renderer,
// which needs a file on disk.
func saveUpload(src io.Reader) (string, error) {
	tempFile, err := os.CreateTemp("", "sigdet-upload-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = tempFile.Close() }()

	if _, err := io.Copy(tempFile, src); err != nil {
		_ = os.Remove(tempFile.Name())
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return tempFile.Name(), nil
}
