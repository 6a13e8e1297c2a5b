package config

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultConfig returns the default configuration values.
func DefaultConfig() Config {
	return Config{
		ModelsDir: "",
		LogLevel:  "info",
		Verbose:   false,
		Pipeline: PipelineConfig{
			Detector: DetectorConfig{
				ConfThreshold: 0.25,
				IoUThreshold:  0.5,
				NumThreads:    0,
			},
			DPI:     200,
			Workers: 1,
		},
		Output: OutputConfig{
			Format:          "text",
			OverlayBoxColor: "#DC2828",
		},
		Server: ServerConfig{
			Host:            "",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      120,
			ShutdownTimeout: 10,
		},
		GPU: GPUConfig{
			Enabled:     false,
			Device:      0,
			MemoryLimit: "",
		},
	}
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

var validFormats = map[string]bool{
	"text": true, "json": true, "yaml": true,
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.LogLevel)
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output format: %q (must be text, json, or yaml)", c.Output.Format)
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if _, err := ParseMemoryLimit(c.GPU.MemoryLimit); err != nil {
		return err
	}
	return nil
}

// Validate checks pipeline settings.
func (p *PipelineConfig) Validate() error {
	if p.Detector.ConfThreshold < 0 || p.Detector.ConfThreshold > 1 {
		return fmt.Errorf("confidence threshold %v outside [0, 1]", p.Detector.ConfThreshold)
	}
	if p.Detector.IoUThreshold < 0 || p.Detector.IoUThreshold > 1 {
		return fmt.Errorf("IoU threshold %v outside [0, 1]", p.Detector.IoUThreshold)
	}
	if p.DPI < 1 {
		return fmt.Errorf("dpi must be positive, got %d", p.DPI)
	}
	if p.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", p.Workers)
	}
	return nil
}

// Validate checks server settings.
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid port: %d", s.Port)
	}
	if s.MaxUploadMB < 1 {
		return fmt.Errorf("max upload size must be at least 1 MB, got %d", s.MaxUploadMB)
	}
	if s.TimeoutSec < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", s.TimeoutSec)
	}
	return nil
}

// ParseMemoryLimit converts a human-readable size like "2GB" or "512MB"
// to bytes. Empty input means no limit and returns 0.
func ParseMemoryLimit(limit string) (uint64, error) {
	limit = strings.TrimSpace(limit)
	if limit == "" {
		return 0, nil
	}

	upper := strings.ToUpper(limit)
	multiplier := uint64(1)
	switch {
	case strings.HasSuffix(upper, "GB"):
		multiplier = 1 << 30
		upper = strings.TrimSuffix(upper, "GB")
	case strings.HasSuffix(upper, "MB"):
		multiplier = 1 << 20
		upper = strings.TrimSuffix(upper, "MB")
	case strings.HasSuffix(upper, "KB"):
		multiplier = 1 << 10
		upper = strings.TrimSuffix(upper, "KB")
	case strings.HasSuffix(upper, "B"):
		upper = strings.TrimSuffix(upper, "B")
	}

	value, err := strconv.ParseUint(strings.TrimSpace(upper), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid memory limit %q: %w", limit, err)
	}
	return value * multiplier, nil
}
