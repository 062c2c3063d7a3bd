// Package rectify straightens the quadrilateral described by a SkewBox into
// an upright rectangular image using a projective warp.
package rectify

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/MeKo-Tech/puzzlebox/internal/common"
	"github.com/MeKo-Tech/puzzlebox/internal/skewbox"
	"github.com/MeKo-Tech/puzzlebox/internal/utils"
)

// ErrSingularTransform reports corners that cannot define a projective map.
var ErrSingularTransform = errors.New("singular perspective transform")

// ErrOutputTooLarge reports a derived output size above MaxOutputPixels.
var ErrOutputTooLarge = errors.New("corrected image too large")

// MaxOutputPixels caps the area of a corrected image.
const MaxOutputPixels = 1 << 28

// Result describes one correction.
type Result struct {
	Image    image.Image
	Applied  bool // false when the source was returned unchanged
	Width    int
	Height   int
	Duration time.Duration
	Err      error // the reason the correction was skipped, if any
}

// Corrector applies perspective correction with a fixed configuration.
// It holds no mutable state and may be shared between goroutines.
type Corrector struct {
	cfg Config
}

// New creates a corrector after validating cfg.
func New(cfg Config) (*Corrector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("rectify config: %w", err)
	}
	return &Corrector{cfg: cfg}, nil
}

// Config returns the corrector configuration.
func (c *Corrector) Config() Config { return c.cfg }

// Apply corrects img. If the box cannot define a transform, the original
// image is returned unchanged and the fallback is logged.
func (c *Corrector) Apply(img image.Image, box skewbox.SkewBox) (image.Image, error) {
	res, err := c.Correct(img, box)
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}

// Correct is Apply with details about what happened. The only error is a
// nil input image; a singular transform is reported through Result.
func (c *Corrector) Correct(img image.Image, box skewbox.SkewBox) (Result, error) {
	if img == nil {
		return Result{}, errors.New("nil image")
	}
	timer := common.NewNamedTimer("rectify")
	out, err := c.Warp(img, box)
	elapsed := timer.Stop()
	if err != nil {
		slog.Warn("perspective correction skipped, using original image",
			"error", err,
			"top_left", box.TopLeft, "top_right", box.TopRight,
			"bottom_left", box.BottomLeft, "bottom_right", box.BottomRight)
		b := img.Bounds()
		return Result{Image: img, Width: b.Dx(), Height: b.Dy(), Duration: elapsed, Err: err}, nil
	}

	slog.Debug("perspective correction applied",
		"width", out.Bounds().Dx(), "height", out.Bounds().Dy(), timer.Attr())

	if c.cfg.DebugDir != "" {
		if derr := dumpOverlayPNG(c.cfg.DebugDir, img, box); derr != nil {
			slog.Debug("debug overlay dump failed", "error", derr)
		}
		if derr := dumpComparePNG(c.cfg.DebugDir, img, box, out); derr != nil {
			slog.Debug("debug compare dump failed", "error", derr)
		}
	}

	return Result{
		Image:    out,
		Applied:  true,
		Width:    out.Bounds().Dx(),
		Height:   out.Bounds().Dy(),
		Duration: elapsed,
	}, nil
}

// Warp maps the quadrilateral of img described by box onto an upright
// rectangle. It returns an error wrapping ErrSingularTransform when the
// corners are degenerate.
func (c *Corrector) Warp(img image.Image, box skewbox.SkewBox) (*image.NRGBA, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	if err := box.Validate(); err != nil {
		if c.cfg.RejectSelfIntersecting || !errors.Is(err, skewbox.ErrSelfIntersecting) {
			return nil, fmt.Errorf("%w: %w", ErrSingularTransform, err)
		}
	}

	w, h := c.OutputSize(box)
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("%w: output size %dx%d", ErrSingularTransform, w, h)
	}
	if int64(w)*int64(h) > MaxOutputPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrOutputTooLarge, w, h)
	}

	inv, err := Transform(box, w, h)
	if err != nil {
		return nil, err
	}

	src := utils.ToNRGBA(img)
	return warpPerspective(src, inv, w, h, c.cfg)
}

// Transform returns the homography that maps continuous coordinates of a
// w x h output rectangle onto the quadrilateral in source space.
func Transform(box skewbox.SkewBox, w, h int) (Homography, error) {
	W, H := float64(w), float64(h)
	dst := [4]utils.Point{{X: 0, Y: 0}, {X: W, Y: 0}, {X: 0, Y: H}, {X: W, Y: H}}
	inv, ok := computeHomography(dst, box.Corners())
	if !ok || math.Abs(inv.Det()) < detEpsilon {
		return Homography{}, fmt.Errorf("%w: corners %s", ErrSingularTransform, box)
	}
	return inv, nil
}

// OutputSize returns the size of the corrected image for box.
func (c *Corrector) OutputSize(box skewbox.SkewBox) (int, int) {
	fw, fh := naturalSize(box, c.cfg.SizeMode)
	switch {
	case c.cfg.OutputWidth > 0 && c.cfg.OutputHeight > 0:
		return c.cfg.OutputWidth, c.cfg.OutputHeight
	case c.cfg.OutputWidth > 0 && fw > 0:
		return c.cfg.OutputWidth, int(math.Round(float64(c.cfg.OutputWidth) * fh / fw))
	case c.cfg.OutputHeight > 0 && fh > 0:
		return int(math.Round(float64(c.cfg.OutputHeight) * fw / fh)), c.cfg.OutputHeight
	}
	if mode := c.cfg.SizeMode; mode == SizeEdges {
		return int(math.Round(fw)), int(math.Round(fh))
	}
	return int(math.Ceil(fw)), int(math.Ceil(fh))
}

func naturalSize(box skewbox.SkewBox, mode SizeMode) (float64, float64) {
	if mode == SizeEdges {
		w0 := utils.Distance(box.TopLeft, box.TopRight)
		w1 := utils.Distance(box.BottomLeft, box.BottomRight)
		h0 := utils.Distance(box.TopLeft, box.BottomLeft)
		h1 := utils.Distance(box.TopRight, box.BottomRight)
		return (w0 + w1) * 0.5, (h0 + h1) * 0.5
	}
	b := box.Bounds()
	return b.Width(), b.Height()
}

// Correct applies perspective correction with DefaultConfig.
func Correct(img image.Image, box skewbox.SkewBox) (image.Image, error) {
	c := &Corrector{cfg: DefaultConfig()}
	return c.Apply(img, box)
}
