package rectify

import (
	"math"
	"testing"

	"github.com/MeKo-Tech/puzzlebox/internal/skewbox"
	"github.com/MeKo-Tech/puzzlebox/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestComputeHomography tests homography computation.
func TestComputeHomography(t *testing.T) {
	p := [4]utils.Point{
		{X: 0, Y: 0},
		{X: 100, Y: 0},
		{X: 100, Y: 100},
		{X: 0, Y: 100},
	}

	h, ok := computeHomography(p, p)
	if !ok {
		t.Fatal("Expected homography computation to succeed")
	}
	for i, want := range Identity() {
		if math.Abs(h[i]-want) > 1e-9 {
			t.Errorf("h[%d] = %g, expected %g", i, h[i], want)
		}
	}
}

func TestApplyHomography(t *testing.T) {
	h := Identity()

	x, y, ok := h.Apply(10, 20)
	require.True(t, ok)
	assert.InDelta(t, 10.0, x, 1e-12)
	assert.InDelta(t, 20.0, y, 1e-12)

	// Points on the line at infinity have no image.
	h[8] = 0
	_, _, ok = h.Apply(0, 0)
	assert.False(t, ok)
}

// TestSolve8x8 tests the 8x8 linear system solver.
func TestSolve8x8(t *testing.T) {
	var a [8][8]float64
	var b [8]float64
	for i := range 8 {
		a[7-i][i] = 2.0 // anti-diagonal forces pivoting
		b[7-i] = float64(2 * (i + 1))
	}

	x, ok := solve8x8(a, b)
	require.True(t, ok)
	for i, v := range x {
		assert.InDelta(t, float64(i+1), v, 1e-9, "x[%d]", i)
	}

	var singular [8][8]float64
	for i := range 8 {
		for j := range 8 {
			singular[i][j] = 1.0
		}
	}
	_, ok = solve8x8(singular, b)
	assert.False(t, ok, "Expected solve8x8 to fail with singular matrix")
}

func TestTransform_MapsRectangleCornersToBox(t *testing.T) {
	box := skewbox.New(utils.Pt(12, 8), utils.Pt(180, 20), utils.Pt(5, 210), utils.Pt(170, 230))
	const w, h = 160, 200

	inv, err := Transform(box, w, h)
	require.NoError(t, err)

	dst := []utils.Point{{X: 0, Y: 0}, {X: w, Y: 0}, {X: 0, Y: h}, {X: w, Y: h}}
	for i, c := range skewbox.AllCorners {
		got, ok := inv.ApplyPoint(dst[i])
		require.True(t, ok)
		assert.InDelta(t, box.Corner(c).X, got.X, 1e-6, c.String())
		assert.InDelta(t, box.Corner(c).Y, got.Y, 1e-6, c.String())
	}

	// A projective map sends the rectangle centre to the crossing of the
	// quadrilateral's diagonals.
	centre, ok := inv.ApplyPoint(utils.Pt(w/2.0, h/2.0))
	require.True(t, ok)
	want := diagonalCrossing(box)
	assert.InDelta(t, want.X, centre.X, 1e-6)
	assert.InDelta(t, want.Y, centre.Y, 1e-6)

	fwd, ok := inv.Invert()
	require.True(t, ok)
	p, ok := fwd.ApplyPoint(box.BottomRight)
	require.True(t, ok)
	assert.InDelta(t, float64(w), p.X, 1e-6)
	assert.InDelta(t, float64(h), p.Y, 1e-6)
}

func TestTransform_Singular(t *testing.T) {
	same := skewbox.New(utils.Pt(5, 5), utils.Pt(5, 5), utils.Pt(5, 5), utils.Pt(5, 5))
	_, err := Transform(same, 10, 10)
	assert.ErrorIs(t, err, ErrSingularTransform)

	_, ok := Homography{}.Invert()
	assert.False(t, ok)
}

func diagonalCrossing(b skewbox.SkewBox) utils.Point {
	// Solve TL + s*(BR-TL) = TR + u*(BL-TR) for s.
	d1 := b.BottomRight.Sub(b.TopLeft)
	d2 := b.BottomLeft.Sub(b.TopRight)
	r := b.TopRight.Sub(b.TopLeft)
	den := d1.X*d2.Y - d1.Y*d2.X
	s := (r.X*d2.Y - r.Y*d2.X) / den
	return utils.Pt(b.TopLeft.X+s*d1.X, b.TopLeft.Y+s*d1.Y)
}
