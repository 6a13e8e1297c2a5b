package onnx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/yalue/onnxruntime_go"
)

const (
	osLinux    = "linux"
	osDarwin   = "darwin"
	osWindows  = "windows"
	libLinux   = "libonnxruntime.so"
	libDarwin  = "libonnxruntime.dylib"
	libWindows = "onnxruntime.dll"
)

// GPUConfig holds configuration for GPU acceleration using CUDA.
type GPUConfig struct {
	UseGPU      bool   // Enable GPU acceleration
	DeviceID    int    // CUDA device ID (default: 0)
	GPUMemLimit uint64 // GPU memory limit in bytes (0 = unlimited)
}

// DefaultGPUConfig returns default GPU configuration.
func DefaultGPUConfig() GPUConfig {
	return GPUConfig{
		UseGPU:      false,
		DeviceID:    0,
		GPUMemLimit: 0,
	}
}

// ValidateGPUConfig checks if the GPU configuration is valid.
func ValidateGPUConfig(config GPUConfig) error {
	if !config.UseGPU {
		return nil
	}
	if config.DeviceID < 0 {
		return fmt.Errorf("device ID must be non-negative, got %d", config.DeviceID)
	}
	return nil
}

// ConfigureSessionForGPU configures an ONNX Runtime session to use GPU
// acceleration. When GPU is not requested this is a no-op.
func ConfigureSessionForGPU(sessionOptions *onnxruntime_go.SessionOptions, gpuConfig GPUConfig) error {
	if !gpuConfig.UseGPU {
		return nil
	}

	cudaOpts, err := onnxruntime_go.NewCUDAProviderOptions()
	if err != nil {
		return fmt.Errorf("failed to create CUDA provider options (GPU may not be available): %w", err)
	}
	defer func() {
		if destroyErr := cudaOpts.Destroy(); destroyErr != nil {
			fmt.Printf("Warning: failed to destroy CUDA provider options: %v\n", destroyErr)
		}
	}()

	cudaSettings := map[string]string{
		"device_id": strconv.Itoa(gpuConfig.DeviceID),
	}
	if gpuConfig.GPUMemLimit > 0 {
		cudaSettings["gpu_mem_limit"] = strconv.FormatUint(gpuConfig.GPUMemLimit, 10)
	}

	if err := cudaOpts.Update(cudaSettings); err != nil {
		return fmt.Errorf("failed to update CUDA provider options: %w", err)
	}

	if err := sessionOptions.AppendExecutionProviderCUDA(cudaOpts); err != nil {
		return fmt.Errorf("failed to append CUDA execution provider: %w", err)
	}

	return nil
}

// getSystemLibraryPaths returns system library paths to try.
func getSystemLibraryPaths() []string {
	return []string{
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/libonnxruntime.so",
		"/opt/onnxruntime/cpu/lib/libonnxruntime.so",
	}
}

// findProjectRoot finds the project root directory by looking for go.mod.
func findProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	projectRoot := cwd
	for {
		if _, err := os.Stat(filepath.Join(projectRoot, "go.mod")); err == nil {
			return projectRoot, nil
		}
		parent := filepath.Dir(projectRoot)
		if parent == projectRoot {
			return "", errors.New("could not find project root")
		}
		projectRoot = parent
	}
}

// getLibraryName returns the appropriate library filename for the current OS.
func getLibraryName() (string, error) {
	switch runtime.GOOS {
	case osLinux:
		return libLinux, nil
	case osDarwin:
		return libDarwin, nil
	case osWindows:
		return libWindows, nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// trySetLibraryPath attempts to set the ONNX library path if the file exists.
func trySetLibraryPath(path string) bool {
	if _, err := os.Stat(path); err == nil {
		onnxruntime_go.SetSharedLibraryPath(path)
		return true
	}
	return false
}

// SetLibraryPath sets the path to the ONNX Runtime shared library, trying
// system locations first and then a project-relative onnxruntime/lib dir.
// The SIGDET_ONNX_LIB environment variable overrides the search.
func SetLibraryPath() error {
	if envPath := os.Getenv("SIGDET_ONNX_LIB"); envPath != "" {
		if trySetLibraryPath(envPath) {
			return nil
		}
		return fmt.Errorf("ONNX Runtime library not found at %s", envPath)
	}

	for _, path := range getSystemLibraryPaths() {
		if trySetLibraryPath(path) {
			return nil
		}
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		return err
	}

	libName, err := getLibraryName()
	if err != nil {
		return err
	}

	libPath := filepath.Join(projectRoot, "onnxruntime", "lib", libName)
	if !trySetLibraryPath(libPath) {
		return fmt.Errorf("ONNX Runtime library not found at %s", libPath)
	}
	return nil
}

// InitializeEnvironment sets the library path and initializes the ONNX
// Runtime environment if it is not already initialized.
func InitializeEnvironment() error {
	if err := SetLibraryPath(); err != nil {
		return fmt.Errorf("failed to set ONNX Runtime library path: %w", err)
	}
	if !onnxruntime_go.IsInitialized() {
		if err := onnxruntime_go.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
		}
	}
	return nil
}
