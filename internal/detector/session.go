package detector

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/puzzlebox/internal/onnx"
	onnxrt "github.com/yalue/onnxruntime_go"
)

// validateModelInfo checks that the model has one input and one output.
func validateModelInfo(modelPath string) (onnxrt.InputOutputInfo, onnxrt.InputOutputInfo, error) {
	inputs, outputs, err := onnxrt.GetInputOutputInfo(modelPath)
	if err != nil {
		return onnxrt.InputOutputInfo{}, onnxrt.InputOutputInfo{}, fmt.Errorf("io info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return onnxrt.InputOutputInfo{}, onnxrt.InputOutputInfo{},
			fmt.Errorf("unexpected io (in:%d out:%d)", len(inputs), len(outputs))
	}
	return inputs[0], outputs[0], nil
}

// createSession creates the ONNX session. A GPU that cannot be used
// degrades to CPU inference.
func createSession(cfg Config, in, out onnxrt.InputOutputInfo) (*onnxrt.DynamicAdvancedSession, error) {
	opts, err := onnx.NewSessionOptions(cfg.NumThreads, cfg.GPU)
	if errors.Is(err, onnx.ErrGPUUnavailable) {
		slog.Warn("GPU unavailable, running corner detector on CPU", "error", err)
	} else if err != nil {
		return nil, err
	}
	defer func() {
		if err := opts.Destroy(); err != nil {
			slog.Debug("failed to destroy session options", "error", err)
		}
	}()

	sess, err := onnxrt.NewDynamicAdvancedSession(cfg.ModelPath, []string{in.Name}, []string{out.Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return sess, nil
}
