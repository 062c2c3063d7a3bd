package detector

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/puzzlebox/internal/models"
	"github.com/MeKo-Tech/puzzlebox/internal/onnx"
)

// Config holds configuration for the ONNX corner detector.
type Config struct {
	Enabled         bool    // whether model-based detection runs at all
	ModelPath       string  // path to the corner regression ONNX model
	NumThreads      int     // number of threads for ONNX inference (0 = auto)
	InputSize       int     // square model input edge in pixels
	AspectRatio     float64 // expected short/long side ratio of the box lid
	AspectTolerance float64 // accepted deviation from AspectRatio
	MinAreaRatio    float64 // minimum quad area relative to the image (0-1)
	MinCornerDist   float64 // minimum distance between corners relative to image width (0-1)
	GPU             onnx.GPUConfig
}

// DefaultConfig returns sensible defaults for corner detection.
func DefaultConfig() Config {
	return Config{
		Enabled:         false,
		ModelPath:       models.GetCornerModelPath(""),
		NumThreads:      0,
		InputSize:       512,
		AspectRatio:     0.77,
		AspectTolerance: 0.35,
		MinAreaRatio:    0.10,
		MinCornerDist:   0.05,
		GPU:             onnx.DefaultGPUConfig(),
	}
}

// UpdateModelPath relocates the model under the provided models directory.
func (c *Config) UpdateModelPath(modelsDir string) {
	c.ModelPath = models.GetCornerModelPath(modelsDir)
}

// Validate checks the detector configuration.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return errors.New("model path cannot be empty")
	}
	if c.InputSize < 32 {
		return fmt.Errorf("input size must be at least 32, got %d", c.InputSize)
	}
	if c.AspectRatio <= 0 || c.AspectRatio > 1 {
		return fmt.Errorf("aspect ratio must be in (0, 1], got %g", c.AspectRatio)
	}
	if c.AspectTolerance < 0 {
		return fmt.Errorf("aspect tolerance must not be negative, got %g", c.AspectTolerance)
	}
	if c.MinAreaRatio < 0 || c.MinAreaRatio > 1 {
		return fmt.Errorf("min area ratio must be in [0, 1], got %g", c.MinAreaRatio)
	}
	if c.NumThreads < 0 {
		return fmt.Errorf("num threads must not be negative, got %d", c.NumThreads)
	}
	return c.GPU.Validate()
}
