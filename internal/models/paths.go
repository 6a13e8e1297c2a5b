package models

import (
	"fmt"
	"os"
	"path/filepath"
)

// SignatureDetector is the default detection model filename. The model is
// the YOLOv8s signature detector exported to ONNX (single "signature"
// class, 640x640 input, 1x5x8400 output).
const SignatureDetector = "yolov8s-signature.onnx"

// DefaultModelsDir is the default models directory relative to the project root.
const DefaultModelsDir = "models"

// EnvModelsDir is the environment variable for models directory override.
const EnvModelsDir = "SIGDET_MODELS_DIR"

// findProjectRoot finds the project root by looking for go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	// Fall back to the working directory when no go.mod is found
	// (installed binary run outside a checkout).
	return os.Getwd()
}

// GetModelsDir resolves the models directory. Priority: explicit argument,
// environment variable, default directory under the project root.
func GetModelsDir(override string) string {
	if override != "" {
		return override
	}
	if envDir := os.Getenv(EnvModelsDir); envDir != "" {
		return envDir
	}
	root, err := findProjectRoot()
	if err != nil {
		return DefaultModelsDir
	}
	return filepath.Join(root, DefaultModelsDir)
}

// GetDetectionModelPath returns the path to the signature detection model.
func GetDetectionModelPath(modelsDir string) string {
	return filepath.Join(GetModelsDir(modelsDir), SignatureDetector)
}

// ValidateModelFile checks that a model file exists and is a regular file.
func ValidateModelFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", path)
	}
	if err != nil {
		return fmt.Errorf("cannot access model file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("model path is a directory: %s", path)
	}
	return nil
}
