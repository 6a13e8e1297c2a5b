package detector

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/MeKo-Tech/sigdet/internal/onnx"
	"github.com/yalue/onnxruntime_go"
)

// Session is the inference collaborator: it runs one forward pass and
// returns the flattened raw output tensor. Implementations must be safe
// for concurrent use; overlapping requests share one session.
type Session interface {
	Run(input onnx.Tensor) ([]float32, error)
	Close() error
}

// onnxSession wraps an ONNX Runtime session for the detection model.
type onnxSession struct {
	mu      sync.Mutex
	session *onnxruntime_go.DynamicAdvancedSession
}

// NewSession loads the detection model and creates an ONNX Runtime session.
func NewSession(config Config) (Session, error) {
	if err := onnx.InitializeEnvironment(); err != nil {
		return nil, err
	}

	inputInfo, outputInfo, err := validateModelInfo(config.ModelPath)
	if err != nil {
		return nil, err
	}

	sessionOptions, err := onnxruntime_go.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() {
		if err := sessionOptions.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to destroy session options: %v\n", err)
		}
	}()

	if err := onnx.ConfigureSessionForGPU(sessionOptions, config.GPU); err != nil {
		return nil, fmt.Errorf("failed to configure GPU: %w", err)
	}

	if config.NumThreads > 0 {
		if err = sessionOptions.SetIntraOpNumThreads(config.NumThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	session, err := onnxruntime_go.NewDynamicAdvancedSession(config.ModelPath,
		[]string{inputInfo.Name}, []string{outputInfo.Name}, sessionOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &onnxSession{session: session}, nil
}

// Run executes one inference pass. ONNX Runtime dynamic sessions are not
// re-entrant, so invocations are serialized.
func (s *onnxSession) Run(input onnx.Tensor) ([]float32, error) {
	if err := onnx.VerifyImageTensor(input); err != nil {
		return nil, fmt.Errorf("invalid input tensor: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, errors.New("session is closed")
	}

	inputTensor, err := onnxruntime_go.NewTensor(onnxruntime_go.NewShape(input.Shape...), input.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() {
		if err := inputTensor.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Error destroying input tensor: %v\n", err)
		}
	}()

	outputs := []onnxruntime_go.Value{nil}
	if err := s.session.Run([]onnxruntime_go.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	outputTensor := outputs[0]
	defer func() {
		if err := outputTensor.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Error destroying output tensor: %v\n", err)
		}
	}()

	floatTensor, ok := outputTensor.(*onnxruntime_go.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("expected float32 tensor, got %T", outputTensor)
	}

	// Copy out before the tensor is destroyed.
	data := floatTensor.GetData()
	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}

// Close releases the underlying ONNX session.
func (s *onnxSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		if err := s.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
		s.session = nil
	}
	return nil
}

// validateModelInfo gets and validates model input/output information.
func validateModelInfo(modelPath string) (onnxruntime_go.InputOutputInfo, onnxruntime_go.InputOutputInfo, error) {
	inputs, outputs, err := onnxruntime_go.GetInputOutputInfo(modelPath)
	if err != nil {
		return onnxruntime_go.InputOutputInfo{}, onnxruntime_go.InputOutputInfo{},
			fmt.Errorf("failed to get model input/output info: %w", err)
	}

	if len(inputs) != 1 {
		return onnxruntime_go.InputOutputInfo{}, onnxruntime_go.InputOutputInfo{},
			fmt.Errorf("expected 1 input, got %d", len(inputs))
	}
	if len(outputs) != 1 {
		return onnxruntime_go.InputOutputInfo{}, onnxruntime_go.InputOutputInfo{},
			fmt.Errorf("expected 1 output, got %d", len(outputs))
	}

	if len(inputs[0].Dimensions) != 4 {
		return onnxruntime_go.InputOutputInfo{}, onnxruntime_go.InputOutputInfo{},
			fmt.Errorf("expected 4D input tensor, got %dD", len(inputs[0].Dimensions))
	}

	return inputs[0], outputs[0], nil
}
