// Package detector supplies the initial SkewBox for an adjustment session:
// from a rectangle detector when one finds the box lid, otherwise from the
// default fallback box.
package detector

import (
	"errors"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/puzzlebox/internal/skewbox"
)

// ErrNotFound reports that no quadrilateral was detected.
var ErrNotFound = errors.New("rectangle not found")

// Detector finds the puzzle-box quadrilateral in a captured image. Corners
// are returned in image pixel space. Implementations return ErrNotFound
// when nothing usable is present.
type Detector interface {
	Detect(img image.Image) (skewbox.SkewBox, error)
}

// Func adapts a plain function to the Detector interface.
type Func func(img image.Image) (skewbox.SkewBox, error)

// Detect calls f.
func (f Func) Detect(img image.Image) (skewbox.SkewBox, error) { return f(img) }

// Static returns a fixed box, typically one supplied by the caller.
type Static struct {
	box   skewbox.SkewBox
	valid bool
}

// NewStatic returns a detector that always reports box.
func NewStatic(box skewbox.SkewBox) *Static {
	return &Static{box: box, valid: true}
}

// None returns a detector that never finds anything.
func None() *Static { return &Static{} }

// Detect returns the configured box or ErrNotFound.
func (s *Static) Detect(image.Image) (skewbox.SkewBox, error) {
	if s == nil || !s.valid {
		return skewbox.SkewBox{}, ErrNotFound
	}
	return s.box, nil
}

// InitialBox returns the box to start an adjustment session with. The
// detector result is used when it produces a valid quadrilateral; every
// other outcome, including a nil detector, falls back to skewbox.Default.
// The boolean reports whether the detected box was used.
func InitialBox(det Detector, img image.Image) (skewbox.SkewBox, bool) {
	b := img.Bounds()
	fallback := skewbox.Default(float64(b.Dx()), float64(b.Dy()))
	if det == nil {
		return fallback, false
	}

	box, err := det.Detect(img)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			slog.Warn("rectangle not found, using default box")
		} else {
			slog.Warn("rectangle detection failed, using default box", "error", err)
		}
		return fallback, false
	}
	if err := box.Validate(); err != nil {
		slog.Warn("detected rectangle rejected, using default box", "error", err, "box", box.String())
		return fallback, false
	}
	slog.Debug("rectangle detected", "box", box.String())
	return box, true
}
