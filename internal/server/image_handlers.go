package server

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MeKo-Tech/sigdet/internal/detector"
	"github.com/MeKo-Tech/sigdet/internal/pipeline"
	"github.com/MeKo-Tech/sigdet/internal/utils"
)

// RequestConfig carries per-request detection overrides.
type RequestConfig struct {
	ConfThreshold float64
	IoUThreshold  float64
	Overlay       bool
}

// detectImageHandler processes single-image detection requests.
// Expects a multipart form with an "image" file field.
func (s *Server) detectImageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	img, reqConfig, err := s.parseImageRequest(w, r)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	result, err := s.pipeline.ProcessImageWithThresholds(img, reqConfig.ConfThreshold, reqConfig.IoUThreshold)
	if err != nil {
		detectRequestsTotal.WithLabelValues("image", "error").Inc()
		s.writeError(w, fmt.Sprintf("detection failed: %v", err), http.StatusInternalServerError)
		return
	}
	detectRequestsTotal.WithLabelValues("image", "success").Inc()
	detectDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())

	if reqConfig.Overlay {
		s.writeOverlayResponse(w, img, result)
		return
	}
	s.writeJSON(w, http.StatusOK, DetectResponse{Success: true, Result: result})
}

// parseImageRequest extracts the uploaded image and request options.
func (s *Server) parseImageRequest(w http.ResponseWriter, r *http.Request) (image.Image, *RequestConfig, error) {
	maxBytes := s.maxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, nil, fmt.Errorf("failed to parse upload: %w", err)
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, nil, fmt.Errorf("missing image field: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read upload: %w", err)
	}

	img, err := utils.DecodeImageBytes(data)
	if err != nil {
		return nil, nil, fmt.Errorf("unsupported or corrupt image: %w", err)
	}

	return img, parseRequestConfig(r), nil
}

// parseRequestConfig reads optional form/query overrides. Invalid
// values are ignored and defaults apply.
func parseRequestConfig(r *http.Request) *RequestConfig {
	config := &RequestConfig{}
	if v, err := strconv.ParseFloat(r.FormValue("confidence"), 64); err == nil {
		config.ConfThreshold = v
	}
	if v, err := strconv.ParseFloat(r.FormValue("iou"), 64); err == nil {
		config.IoUThreshold = v
	}
	config.Overlay = r.FormValue("overlay") == "true"
	return config
}

// writeOverlayResponse returns the annotated image as PNG.
func (s *Server) writeOverlayResponse(w http.ResponseWriter, img image.Image, result *detector.DetectionResult) {
	overlay := pipeline.RenderOverlay(img, result, nil)
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, overlay); err != nil {
		slog.Error("Failed to encode overlay response", "error", err)
	}
}
