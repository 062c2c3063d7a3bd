package detector

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/puzzlebox/internal/skewbox"
	"github.com/MeKo-Tech/puzzlebox/internal/utils"
)

// decodeCorners turns the first 8 model outputs (x,y pairs in TL, TR, BL,
// BR order) into a box in a w x h frame. Values inside [0,1] are treated as
// normalised coordinates.
func decodeCorners(out []float32, w, h int) (skewbox.SkewBox, error) {
	if len(out) < 8 {
		return skewbox.SkewBox{}, fmt.Errorf("%w: model returned %d values", ErrNotFound, len(out))
	}

	normalised := true
	for _, v := range out[:8] {
		if v < 0 || v > 1 || math.IsNaN(float64(v)) {
			normalised = false
			break
		}
	}

	var pts [4]utils.Point
	for i := range 4 {
		x := float64(out[i*2])
		y := float64(out[i*2+1])
		if normalised {
			x *= float64(w)
			y *= float64(h)
		}
		pts[i] = utils.Pt(clamp(x, 0, float64(w)), clamp(y, 0, float64(h)))
	}
	return skewbox.New(pts[0], pts[1], pts[2], pts[3]), nil
}

// checkCorners rejects boxes that are too small, too thin or outside the
// expected aspect range for a w x h frame.
func checkCorners(box skewbox.SkewBox, w, h int, cfg Config) error {
	c := box.Corners()
	minDist := float64(w) * cfg.MinCornerDist
	for i := range 4 {
		for j := i + 1; j < 4; j++ {
			if utils.Distance(c[i], c[j]) < minDist {
				return fmt.Errorf("%w: corners closer than %.1fpx", ErrNotFound, minDist)
			}
		}
	}

	width := (utils.Distance(box.TopLeft, box.TopRight) + utils.Distance(box.BottomLeft, box.BottomRight)) * 0.5
	height := (utils.Distance(box.TopLeft, box.BottomLeft) + utils.Distance(box.TopRight, box.BottomRight)) * 0.5
	if width <= 1 || height <= 1 {
		return fmt.Errorf("%w: quad too small", ErrNotFound)
	}

	if ratio := box.Area() / float64(w*h); ratio < cfg.MinAreaRatio {
		return fmt.Errorf("%w: area ratio %.3f below %.3f", ErrNotFound, ratio, cfg.MinAreaRatio)
	}

	aspect := math.Min(width, height) / math.Max(width, height)
	if math.Abs(aspect-cfg.AspectRatio) > cfg.AspectTolerance {
		return fmt.Errorf("%w: aspect %.2f outside %.2f±%.2f", ErrNotFound, aspect, cfg.AspectRatio, cfg.AspectTolerance)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
