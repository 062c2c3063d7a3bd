// Package skewbox holds the four-corner quadrilateral that describes a
// photographed puzzle box, the conversions between image and display space
// used by the corner-adjustment surface, and the editing session that
// produces the box handed to the perspective corrector.
package skewbox

import (
	"errors"
	"fmt"
	"math"

	"github.com/MeKo-Tech/puzzlebox/internal/utils"
)

// DefaultBottomInset is the margin removed from the bottom edge of the
// fallback box.
const DefaultBottomInset = 50.0

// Sentinel errors returned by Validate.
var (
	ErrDegenerate       = errors.New("skew box is degenerate")
	ErrSelfIntersecting = errors.New("skew box edges cross")
)

var errNonFinite = errors.New("non-finite coordinate")

// degenerateEpsilon bounds cross products and areas treated as zero.
const degenerateEpsilon = 1e-6

// Corner identifies one of the four handles of a SkewBox.
type Corner int

// Corners in hit-test priority order.
const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

// NoCorner marks the absence of an active handle.
const NoCorner Corner = -1

// AllCorners lists the corners in hit-test priority order.
var AllCorners = [4]Corner{TopLeft, TopRight, BottomLeft, BottomRight}

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top_left"
	case TopRight:
		return "top_right"
	case BottomLeft:
		return "bottom_left"
	case BottomRight:
		return "bottom_right"
	default:
		return "none"
	}
}

// ParseCorner converts a corner name as produced by String back to a Corner.
func ParseCorner(s string) (Corner, error) {
	for _, c := range AllCorners {
		if c.String() == s {
			return c, nil
		}
	}
	return NoCorner, fmt.Errorf("unknown corner %q", s)
}

// SkewBox is a possibly non-rectangular quadrilateral in image pixel space.
// Values are never mutated in place; WithCorner returns a modified copy.
type SkewBox struct {
	TopLeft     utils.Point `json:"top_left" yaml:"top_left"`
	TopRight    utils.Point `json:"top_right" yaml:"top_right"`
	BottomLeft  utils.Point `json:"bottom_left" yaml:"bottom_left"`
	BottomRight utils.Point `json:"bottom_right" yaml:"bottom_right"`
}

// New builds a SkewBox from its corners in TL, TR, BL, BR order.
func New(tl, tr, bl, br utils.Point) SkewBox {
	return SkewBox{TopLeft: tl, TopRight: tr, BottomLeft: bl, BottomRight: br}
}

// FromPoints builds a SkewBox from exactly four points in TL, TR, BL, BR order.
func FromPoints(pts []utils.Point) (SkewBox, error) {
	if len(pts) != 4 {
		return SkewBox{}, fmt.Errorf("skew box needs 4 points, got %d", len(pts))
	}
	return New(pts[0], pts[1], pts[2], pts[3]), nil
}

// Default returns the fallback box for an image of the given size: the full
// width, with the bottom DefaultBottomInset pixels left out.
func Default(imageWidth, imageHeight float64) SkewBox {
	bottom := imageHeight - DefaultBottomInset
	return SkewBox{
		TopLeft:     utils.Pt(0, 0),
		TopRight:    utils.Pt(imageWidth, 0),
		BottomLeft:  utils.Pt(0, bottom),
		BottomRight: utils.Pt(imageWidth, bottom),
	}
}

// Corner returns the position of corner c. NoCorner yields the zero point.
func (b SkewBox) Corner(c Corner) utils.Point {
	switch c {
	case TopLeft:
		return b.TopLeft
	case TopRight:
		return b.TopRight
	case BottomLeft:
		return b.BottomLeft
	case BottomRight:
		return b.BottomRight
	default:
		return utils.Point{}
	}
}

// WithCorner returns a copy of b with corner c moved to p.
func (b SkewBox) WithCorner(c Corner, p utils.Point) SkewBox {
	switch c {
	case TopLeft:
		b.TopLeft = p
	case TopRight:
		b.TopRight = p
	case BottomLeft:
		b.BottomLeft = p
	case BottomRight:
		b.BottomRight = p
	}
	return b
}

// Corners returns the corners in TL, TR, BL, BR order.
func (b SkewBox) Corners() [4]utils.Point {
	return [4]utils.Point{b.TopLeft, b.TopRight, b.BottomLeft, b.BottomRight}
}

// Ring returns the corners in drawing order (TL, TR, BR, BL).
func (b SkewBox) Ring() []utils.Point {
	return []utils.Point{b.TopLeft, b.TopRight, b.BottomRight, b.BottomLeft}
}

// Bounds returns the axis-aligned bounding box of the corners.
func (b SkewBox) Bounds() utils.Box {
	c := b.Corners()
	return utils.BoundingBox(c[:])
}

// Area returns the absolute area of the quadrilateral traced in ring order.
func (b SkewBox) Area() float64 {
	return math.Abs(utils.PolygonArea(b.Ring()))
}

// Scale returns b with every corner scaled by sx, sy.
func (b SkewBox) Scale(sx, sy float64) SkewBox {
	return SkewBox{
		TopLeft:     utils.ScalePoint(b.TopLeft, sx, sy),
		TopRight:    utils.ScalePoint(b.TopRight, sx, sy),
		BottomLeft:  utils.ScalePoint(b.BottomLeft, sx, sy),
		BottomRight: utils.ScalePoint(b.BottomRight, sx, sy),
	}
}

// Validate checks that the corners describe a usable quadrilateral.
// Coincident corners, three collinear corners and zero area report
// ErrDegenerate. Crossed edges report ErrSelfIntersecting.
func (b SkewBox) Validate() error {
	c := b.Corners()
	for _, p := range c {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("%w: %w", ErrDegenerate, errNonFinite)
		}
	}

	for i := range 4 {
		for j := i + 1; j < 4; j++ {
			if utils.Distance(c[i], c[j]) < degenerateEpsilon {
				return fmt.Errorf("%w: %s and %s coincide", ErrDegenerate, AllCorners[i], AllCorners[j])
			}
		}
	}

	// Any three of the four corners on one line collapse the projective map.
	// The tolerance scales with the box so large images are not penalised.
	scale := math.Max(b.Bounds().Width(), b.Bounds().Height())
	eps := degenerateEpsilon * math.Max(1, scale*scale)
	for skip := range 4 {
		var tri [3]utils.Point
		n := 0
		for i := range 4 {
			if i != skip {
				tri[n] = c[i]
				n++
			}
		}
		if math.Abs(utils.Cross(tri[0], tri[1], tri[2])) < eps {
			return fmt.Errorf("%w: three corners are collinear", ErrDegenerate)
		}
	}

	ring := b.Ring()
	if utils.SegmentsCross(ring[0], ring[1], ring[2], ring[3]) ||
		utils.SegmentsCross(ring[1], ring[2], ring[3], ring[0]) {
		return ErrSelfIntersecting
	}

	if b.Area() < eps {
		return fmt.Errorf("%w: zero area", ErrDegenerate)
	}
	return nil
}

func (b SkewBox) String() string {
	return fmt.Sprintf("tl=(%.1f,%.1f) tr=(%.1f,%.1f) bl=(%.1f,%.1f) br=(%.1f,%.1f)",
		b.TopLeft.X, b.TopLeft.Y, b.TopRight.X, b.TopRight.Y,
		b.BottomLeft.X, b.BottomLeft.Y, b.BottomRight.X, b.BottomRight.Y)
}
