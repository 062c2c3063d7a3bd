package skewbox

import (
	"math"

	"github.com/MeKo-Tech/puzzlebox/internal/utils"
)

// DefaultTolerance is the hit-zone half-width in display units.
const DefaultTolerance = 50.0

// WithinTolerance reports whether point lies strictly inside the square
// hit-zone of half-width tolerance centred on target. Each axis is tested
// independently.
func WithinTolerance(point, target utils.Point, tolerance float64) bool {
	return math.Abs(point.X-target.X) < tolerance && math.Abs(point.Y-target.Y) < tolerance
}

// HitTest returns the first corner of handles (in display space) whose
// hit-zone contains point, trying TL, TR, BL, BR in that order. It returns
// NoCorner when none matches.
func HitTest(point utils.Point, handles SkewBox, tolerance float64) Corner {
	for _, c := range AllCorners {
		if WithinTolerance(point, handles.Corner(c), tolerance) {
			return c
		}
	}
	return NoCorner
}
