package skewbox

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/puzzlebox/internal/utils"
)

// Parse reads a box written as four "x,y" pairs separated by spaces or
// semicolons, in TL, TR, BL, BR order, e.g. "0,0 200,0 0,250 200,250".
func Parse(s string) (SkewBox, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ';' || r == '\t' })
	if len(fields) != 4 {
		return SkewBox{}, fmt.Errorf("expected 4 corners, got %d", len(fields))
	}
	pts := make([]utils.Point, 4)
	for i, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return SkewBox{}, fmt.Errorf("corner %s: expected x,y, got %q", AllCorners[i], f)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return SkewBox{}, fmt.Errorf("corner %s: %w", AllCorners[i], err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return SkewBox{}, fmt.Errorf("corner %s: %w", AllCorners[i], err)
		}
		pts[i] = utils.Pt(x, y)
	}
	return FromPoints(pts)
}
