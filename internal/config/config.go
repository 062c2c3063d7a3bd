package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/MeKo-Tech/puzzlebox/internal/batch"
	"github.com/MeKo-Tech/puzzlebox/internal/detector"
	"github.com/MeKo-Tech/puzzlebox/internal/overlay"
	"github.com/MeKo-Tech/puzzlebox/internal/rectify"
	"github.com/MeKo-Tech/puzzlebox/internal/skewbox"
)

var (
	validLogLevels      = []string{"debug", "info", "warn", "error"}
	validInterpolations = []string{string(rectify.InterpolationBilinear), string(rectify.InterpolationNearest)}
	validSizeModes      = []string{string(rectify.SizeBounds), string(rectify.SizeEdges)}
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	rc := rectify.DefaultConfig()
	dc := detector.DefaultConfig()
	oc := overlay.DefaultOptions()
	bc := batch.DefaultConfig()

	return Config{
		ModelsDir: "",
		LogLevel:  "info",
		Verbose:   false,
		Editor: EditorConfig{
			Tolerance:    skewbox.DefaultTolerance,
			DisplayScale: skewbox.DisplayScale,
		},
		Rectify: RectifyConfig{
			Interpolation:          string(rc.Interpolation),
			SizeMode:               string(rc.SizeMode),
			OutputWidth:            rc.OutputWidth,
			OutputHeight:           rc.OutputHeight,
			Workers:                rc.Workers,
			RejectSelfIntersecting: rc.RejectSelfIntersecting,
		},
		Detector: DetectorConfig{
			Enabled:         dc.Enabled,
			ModelPath:       "",
			NumThreads:      dc.NumThreads,
			InputSize:       dc.InputSize,
			AspectRatio:     dc.AspectRatio,
			AspectTolerance: dc.AspectTolerance,
			MinAreaRatio:    dc.MinAreaRatio,
			UseGPU:          dc.GPU.UseGPU,
			GPUDevice:       dc.GPU.DeviceID,
		},
		Overlay: OverlayConfig{
			Opacity:     oc.Opacity,
			DoubleSided: oc.DoubleSided,
			PDF:         false,
			ReadCodes:   oc.ReadCodes,
		},
		Batch: BatchConfig{
			Workers: bc.Workers,
			Suffix:  bc.Suffix,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      60,
			ShutdownTimeout: 10,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(validLogLevels, c.LogLevel) {
		errs = append(errs, fmt.Errorf("invalid log_level %q (must be one of %v)", c.LogLevel, validLogLevels))
	}

	if c.Editor.Tolerance <= 0 {
		errs = append(errs, fmt.Errorf("editor.tolerance must be positive, got %g", c.Editor.Tolerance))
	}
	if c.Editor.DisplayScale != skewbox.DisplayScale {
		errs = append(errs, fmt.Errorf("editor.display_scale is fixed at %g, got %g", skewbox.DisplayScale, c.Editor.DisplayScale))
	}

	if !slices.Contains(validInterpolations, c.Rectify.Interpolation) {
		errs = append(errs, fmt.Errorf("invalid rectify.interpolation %q (must be one of %v)", c.Rectify.Interpolation, validInterpolations))
	}
	if !slices.Contains(validSizeModes, c.Rectify.SizeMode) {
		errs = append(errs, fmt.Errorf("invalid rectify.size_mode %q (must be one of %v)", c.Rectify.SizeMode, validSizeModes))
	}
	if c.Rectify.OutputWidth < 0 || c.Rectify.OutputHeight < 0 {
		errs = append(errs, errors.New("rectify output size must not be negative"))
	}
	if c.Rectify.Workers < 0 {
		errs = append(errs, fmt.Errorf("rectify.workers must not be negative, got %d", c.Rectify.Workers))
	}

	if c.Detector.GPUMemLimitMB < 0 {
		errs = append(errs, fmt.Errorf("detector.gpu_mem_limit_mb must not be negative, got %d", c.Detector.GPUMemLimitMB))
	}
	if c.Detector.Enabled {
		if err := c.ToDetectorConfig().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("detector: %w", err))
		}
	}

	if c.Overlay.Opacity < 0 || c.Overlay.Opacity > 1 {
		errs = append(errs, fmt.Errorf("overlay.opacity must be in [0, 1], got %g", c.Overlay.Opacity))
	}

	if c.Batch.Workers < 0 {
		errs = append(errs, fmt.Errorf("batch.workers must not be negative, got %d", c.Batch.Workers))
	}
	if c.Batch.Suffix == "" && c.Batch.OutputDir == "" {
		errs = append(errs, errors.New("batch.suffix or batch.output_dir must be set"))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB))
	}
	if c.Server.TimeoutSec <= 0 || c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server timeouts must be positive"))
	}
	return errors.Join(errs...)
}

// ToRectifyConfig converts the rectify section.
func (c *Config) ToRectifyConfig() rectify.Config {
	rc := rectify.DefaultConfig()
	rc.Interpolation = rectify.Interpolation(c.Rectify.Interpolation)
	rc.SizeMode = rectify.SizeMode(c.Rectify.SizeMode)
	rc.OutputWidth = c.Rectify.OutputWidth
	rc.OutputHeight = c.Rectify.OutputHeight
	rc.Workers = c.Rectify.Workers
	rc.RejectSelfIntersecting = c.Rectify.RejectSelfIntersecting
	rc.DebugDir = c.Rectify.DebugDir
	return rc
}

// ToDetectorConfig converts the detector section, resolving the model path
// under ModelsDir when none is given.
func (c *Config) ToDetectorConfig() detector.Config {
	dc := detector.DefaultConfig()
	dc.Enabled = c.Detector.Enabled
	dc.NumThreads = c.Detector.NumThreads
	dc.InputSize = c.Detector.InputSize
	dc.AspectRatio = c.Detector.AspectRatio
	dc.AspectTolerance = c.Detector.AspectTolerance
	dc.MinAreaRatio = c.Detector.MinAreaRatio
	dc.GPU.UseGPU = c.Detector.UseGPU
	dc.GPU.DeviceID = c.Detector.GPUDevice
	if c.Detector.GPUMemLimitMB > 0 {
		dc.GPU.GPUMemLimit = uint64(c.Detector.GPUMemLimitMB) * 1024 * 1024
	}
	if c.Detector.ModelPath != "" {
		dc.ModelPath = c.Detector.ModelPath
	} else {
		dc.UpdateModelPath(c.ModelsDir)
	}
	return dc
}

// ToOverlayOptions converts the overlay section.
func (c *Config) ToOverlayOptions() overlay.Options {
	return overlay.Options{
		Opacity:     c.Overlay.Opacity,
		DoubleSided: c.Overlay.DoubleSided,
		ReadCodes:   c.Overlay.ReadCodes,
	}
}

// ToBatchConfig converts the batch section together with the correction,
// detector and overlay sections it shares with single corrections.
func (c *Config) ToBatchConfig() batch.Config {
	bc := batch.DefaultConfig()
	bc.Workers = c.Batch.Workers
	bc.Suffix = c.Batch.Suffix
	bc.OutputDir = c.Batch.OutputDir
	bc.Recursive = c.Batch.Recursive
	bc.Rectify = c.ToRectifyConfig()
	bc.Detector = c.ToDetectorConfig()
	bc.Overlay = c.ToOverlayOptions()
	return bc
}
