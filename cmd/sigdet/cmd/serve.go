package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/sigdet/internal/config"
	"github.com/MeKo-Tech/sigdet/internal/pipeline"
	"github.com/MeKo-Tech/sigdet/internal/server"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the signature detection API",
	Long: `Start an HTTP server that provides REST API endpoints for signature
detection.

The server provides the following endpoints:
  POST /detect/image - Detect signatures in an uploaded image
  POST /detect/pdf   - Detect signatures in an uploaded PDF
  GET  /ws           - WebSocket endpoint with per-page progress
  GET  /health       - Health check endpoint
  GET  /stats        - Rolling inference statistics
  GET  /metrics      - Prometheus metrics

Examples:
  sigdet serve
  sigdet serve --port 8080
  sigdet serve --host 0.0.0.0 --port 3000`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "host to bind the server to")
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on")
	serveCmd.Flags().String("cors-origin", "", "allowed CORS origin")
	serveCmd.Flags().Int("max-upload-size", 0, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 0, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 0, "graceful shutdown timeout in seconds")
	serveCmd.Flags().String("model", "", "override detection model path")
	serveCmd.Flags().Float64("confidence", 0, "default detection confidence threshold (0..1)")
	serveCmd.Flags().Float64("iou", 0, "default IoU threshold for non-maximum suppression (0..1)")
	serveCmd.Flags().Int("dpi", 0, "rasterization resolution for PDF pages")
	serveCmd.Flags().Int("workers", 0, "max worker goroutines for PDF page processing")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	// Extract server configuration with CLI flag overrides
	host := cfg.Server.Host
	if cmd.Flags().Changed("host") {
		host, _ = cmd.Flags().GetString("host")
	}

	port := cfg.Server.Port
	if cmd.Flags().Changed("port") {
		port, _ = cmd.Flags().GetInt("port")
	}

	corsOrigin := cfg.Server.CORSOrigin
	if cmd.Flags().Changed("cors-origin") {
		corsOrigin, _ = cmd.Flags().GetString("cors-origin")
	}

	maxUploadSize := cfg.Server.MaxUploadMB
	if cmd.Flags().Changed("max-upload-size") {
		maxUploadSize, _ = cmd.Flags().GetInt("max-upload-size")
	}

	timeout := cfg.Server.TimeoutSec
	if cmd.Flags().Changed("timeout") {
		timeout, _ = cmd.Flags().GetInt("timeout")
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if cmd.Flags().Changed("shutdown-timeout") {
		shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
	}

	modelPath := cfg.Pipeline.Detector.ModelPath
	if cmd.Flags().Changed("model") {
		modelPath, _ = cmd.Flags().GetString("model")
	}

	confidence := cfg.Pipeline.Detector.ConfThreshold
	if cmd.Flags().Changed("confidence") {
		confidence, _ = cmd.Flags().GetFloat64("confidence")
	}

	iou := cfg.Pipeline.Detector.IoUThreshold
	if cmd.Flags().Changed("iou") {
		iou, _ = cmd.Flags().GetFloat64("iou")
	}

	dpi := cfg.Pipeline.DPI
	if cmd.Flags().Changed("dpi") {
		dpi, _ = cmd.Flags().GetInt("dpi")
	}

	workers := cfg.Pipeline.Workers
	if cmd.Flags().Changed("workers") {
		workers, _ = cmd.Flags().GetInt("workers")
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
	}
	if err := validateThreshold("confidence", confidence); err != nil {
		return err
	}
	if err := validateThreshold("IoU", iou); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build pipeline config using centralized configuration
	pCfg := pipeline.DefaultConfig()
	pCfg.ModelsDir = cfg.ModelsDir
	if modelPath != "" {
		pCfg.Detector.ModelPath = modelPath
	}
	if confidence > 0 {
		pCfg.Detector.ConfThreshold = confidence
	}
	if iou > 0 {
		pCfg.Detector.IoUThreshold = iou
	}
	if dpi > 0 {
		pCfg.DPI = dpi
	}
	if workers > 0 {
		pCfg.Workers = workers
	}
	if cfg.GPU.Enabled {
		pCfg.Detector.GPU.UseGPU = true
		pCfg.Detector.GPU.DeviceID = cfg.GPU.Device
		if cfg.GPU.MemoryLimit != "" {
			limit, err := config.ParseMemoryLimit(cfg.GPU.MemoryLimit)
			if err != nil {
				return fmt.Errorf("invalid GPU memory limit: %w", err)
			}
			pCfg.Detector.GPU.GPUMemLimit = limit
		}
	}

	serverConfig := server.Config{
		Host:           host,
		Port:           port,
		CORSOrigin:     corsOrigin,
		MaxUploadMB:    int64(maxUploadSize),
		TimeoutSec:     timeout,
		PipelineConfig: pCfg,
	}

	detectionServer, err := server.NewServer(serverConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}
	defer func() { _ = detectionServer.Close() }()

	mux := http.NewServeMux()
	detectionServer.SetupRoutes(mux)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(timeout) * time.Second,
		WriteTimeout:      time.Duration(timeout) * time.Second,
	}

	go func() {
		slog.Info("Starting signature detection server", "host", host, "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(shutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("Server stopped")
	return nil
}
