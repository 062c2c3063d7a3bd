// Package overlay prepares the hand-off to the 3-D renderer: the physical
// size entered by the user, the textured plane description and its
// printable export.
package overlay

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// DefaultCentimeters replaces any width or height that cannot be parsed.
const DefaultCentimeters = 1.0

// ErrInvalidSize reports size text that is not a positive decimal number.
var ErrInvalidSize = errors.New("invalid size")

// PhysicalSize is a real-world extent in meters.
type PhysicalSize struct {
	Width  float64 `json:"width_m" yaml:"width_m"`
	Height float64 `json:"height_m" yaml:"height_m"`
}

// FromCentimeters converts a size given in centimeters.
func FromCentimeters(w, h float64) PhysicalSize {
	return PhysicalSize{Width: w / 100, Height: h / 100}
}

// Centimeters returns the size in centimeters.
func (s PhysicalSize) Centimeters() (float64, float64) {
	return s.Width * 100, s.Height * 100
}

// Aspect returns width divided by height.
func (s PhysicalSize) Aspect() float64 {
	if s.Height == 0 {
		return 0
	}
	return s.Width / s.Height
}

func (s PhysicalSize) String() string {
	w, h := s.Centimeters()
	return fmt.Sprintf("%gcm x %gcm", w, h)
}

// ParseCentimeters parses a user-entered length in centimeters. Full-width
// digits are folded to ASCII, an optional "cm" suffix is dropped and a
// single comma is accepted as the decimal separator.
func ParseCentimeters(text string) (float64, error) {
	s := strings.TrimSpace(width.Fold.String(text))
	s = strings.TrimSpace(strings.TrimSuffix(s, "cm"))
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidSize)
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, text)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("%w: %q is not a positive length", ErrInvalidSize, text)
	}
	return v, nil
}

// ParseSize converts the width and height entered in centimeters into a
// PhysicalSize in meters. Each value that fails ParseCentimeters falls back
// to DefaultCentimeters independently.
func ParseSize(widthText, heightText string) PhysicalSize {
	return FromCentimeters(centimetersOrDefault("width", widthText), centimetersOrDefault("height", heightText))
}

func centimetersOrDefault(field, text string) float64 {
	v, err := ParseCentimeters(text)
	if err != nil {
		slog.Warn("invalid size input, using default",
			"field", field, "input", text, "default_cm", DefaultCentimeters, "error", err)
		return DefaultCentimeters
	}
	return v
}
