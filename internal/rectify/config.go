package rectify

import (
	"fmt"
	"image/color"
	"runtime"
)

// Interpolation selects how source pixels are sampled.
type Interpolation string

const (
	// InterpolationBilinear blends the four nearest source pixels.
	InterpolationBilinear Interpolation = "bilinear"
	// InterpolationNearest picks the closest source pixel.
	InterpolationNearest Interpolation = "nearest"
)

// SizeMode selects how the output size is derived from the quadrilateral.
type SizeMode string

const (
	// SizeBounds uses the bounding box of the four corners.
	SizeBounds SizeMode = "bounds"
	// SizeEdges averages the lengths of opposite edges.
	SizeEdges SizeMode = "edges"
)

// Config holds configuration for perspective correction.
type Config struct {
	Interpolation          Interpolation // sampler used for every output pixel
	SizeMode               SizeMode      // how to derive output size when not fixed
	OutputWidth            int           // fixed output width in pixels (0 = derived)
	OutputHeight           int           // fixed output height in pixels (0 = derived)
	Workers                int           // row bands processed in parallel (0 = NumCPU)
	RejectSelfIntersecting bool          // treat crossed edges as a singular transform
	Background             color.NRGBA   // colour for samples that fall outside the source
	// Debug dumping
	DebugDir string // if non-empty, writes overlay and compare PNGs here
}

// DefaultConfig returns sensible defaults for perspective correction.
func DefaultConfig() Config {
	return Config{
		Interpolation:          InterpolationBilinear,
		SizeMode:               SizeBounds,
		Workers:                0,
		RejectSelfIntersecting: true,
		Background:             color.NRGBA{A: 255},
	}
}

// Validate checks the configuration for unsupported values.
func (c Config) Validate() error {
	switch c.Interpolation {
	case InterpolationBilinear, InterpolationNearest:
	default:
		return fmt.Errorf("unsupported interpolation %q", c.Interpolation)
	}
	switch c.SizeMode {
	case SizeBounds, SizeEdges:
	default:
		return fmt.Errorf("unsupported size mode %q", c.SizeMode)
	}
	if c.OutputWidth < 0 || c.OutputHeight < 0 {
		return fmt.Errorf("output size must not be negative (%dx%d)", c.OutputWidth, c.OutputHeight)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative: %d", c.Workers)
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
