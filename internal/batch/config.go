package batch

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/puzzlebox/internal/detector"
	"github.com/MeKo-Tech/puzzlebox/internal/overlay"
	"github.com/MeKo-Tech/puzzlebox/internal/rectify"
)

// Output formats understood by Result.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Config holds all configuration for batch correction.
type Config struct {
	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Output settings
	OutputDir string // corrected images are written here; empty means next to each input
	Suffix    string // appended to the input base name, before ".png"
	Manifest  bool   // write a plane manifest next to every corrected image

	// Physical lid size shared by every input, as entered in centimeters
	WidthText  string
	HeightText string

	// Parallel processing settings
	Workers int // images corrected at once (0 = 1)

	// Progress settings
	Progress ProgressCallback

	Rectify  rectify.Config
	Detector detector.Config
	Overlay  overlay.Options
}

// DefaultConfig returns a configuration writing "_corrected" images next to
// their inputs, one at a time.
func DefaultConfig() Config {
	return Config{
		Suffix:   "_corrected",
		Workers:  1,
		Rectify:  rectify.DefaultConfig(),
		Detector: detector.DefaultConfig(),
		Overlay:  overlay.DefaultOptions(),
	}
}

// Validate checks the batch configuration.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Suffix == "" && c.OutputDir == "" {
		return errors.New("an output directory or a suffix is required so inputs are not overwritten")
	}
	return c.Rectify.Validate()
}

func (c Config) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}
