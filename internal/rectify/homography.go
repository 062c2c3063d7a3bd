package rectify

import (
	"math"

	"github.com/MeKo-Tech/puzzlebox/internal/utils"
)

// pivotEpsilon is the smallest pivot accepted by the elimination. Smaller
// pivots mean the correspondences do not determine a projective map.
const pivotEpsilon = 1e-10

// detEpsilon bounds determinants treated as zero.
const detEpsilon = 1e-12

// Homography is a row-major 3x3 projective transform.
type Homography [9]float64

// Identity returns the identity transform.
func Identity() Homography { return Homography{1, 0, 0, 0, 1, 0, 0, 0, 1} }

// computeHomography computes H mapping p[i] -> q[i].
func computeHomography(p, q [4]utils.Point) (Homography, bool) {
	// Build 8x8 system A*h = b for the 8 unknowns (h00..h21), h22=1.
	var A [8][8]float64
	var b [8]float64
	for i := range 4 {
		X, Y := p[i].X, p[i].Y
		x, y := q[i].X, q[i].Y
		r := 2 * i
		// x' = (h00 X + h01 Y + h02)/(h20 X + h21 Y + 1)
		A[r] = [8]float64{X, Y, 1, 0, 0, 0, -X * x, -Y * x}
		b[r] = x
		// y' = (h10 X + h11 Y + h12)/(h20 X + h21 Y + 1)
		A[r+1] = [8]float64{0, 0, 0, X, Y, 1, -X * y, -Y * y}
		b[r+1] = y
	}

	h, ok := solve8x8(A, b)
	if !ok {
		return Homography{}, false
	}
	H := Homography{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}
	for _, v := range H {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Homography{}, false
		}
	}
	return H, true
}

// solve8x8 runs Gauss-Jordan elimination with partial pivoting.
func solve8x8(matrix [8][8]float64, vector [8]float64) ([8]float64, bool) {
	for i := range 8 {
		if !pivotAndNormalize(&matrix, &vector, i) {
			return [8]float64{}, false
		}
		eliminateColumn(&matrix, &vector, i)
	}
	return vector, true
}

func pivotAndNormalize(matrix *[8][8]float64, vector *[8]float64, col int) bool {
	pivotRow := findPivotRow(matrix, col)
	if pivotRow == -1 {
		return false
	}
	if pivotRow != col {
		matrix[col], matrix[pivotRow] = matrix[pivotRow], matrix[col]
		vector[col], vector[pivotRow] = vector[pivotRow], vector[col]
	}
	div := matrix[col][col]
	for c := col; c < 8; c++ {
		matrix[col][c] /= div
	}
	vector[col] /= div
	return true
}

func findPivotRow(matrix *[8][8]float64, col int) int {
	maxAbs := math.Abs(matrix[col][col])
	pivotRow := col
	for r := col + 1; r < 8; r++ {
		if v := math.Abs(matrix[r][col]); v > maxAbs {
			maxAbs = v
			pivotRow = r
		}
	}
	if maxAbs < pivotEpsilon {
		return -1
	}
	return pivotRow
}

func eliminateColumn(matrix *[8][8]float64, vector *[8]float64, col int) {
	for r := range 8 {
		if r == col {
			continue
		}
		factor := matrix[r][col]
		if factor == 0 {
			continue
		}
		for c := col; c < 8; c++ {
			matrix[r][c] -= factor * matrix[col][c]
		}
		vector[r] -= factor * vector[col]
	}
}

// Apply maps (x, y). ok is false when the point maps to infinity.
func (h Homography) Apply(x, y float64) (float64, float64, bool) {
	denom := h[6]*x + h[7]*y + h[8]
	if math.Abs(denom) < pivotEpsilon {
		return 0, 0, false
	}
	return (h[0]*x + h[1]*y + h[2]) / denom, (h[3]*x + h[4]*y + h[5]) / denom, true
}

// ApplyPoint maps p, see Apply.
func (h Homography) ApplyPoint(p utils.Point) (utils.Point, bool) {
	x, y, ok := h.Apply(p.X, p.Y)
	return utils.Pt(x, y), ok
}

// Det returns the determinant of the matrix.
func (h Homography) Det() float64 {
	return h[0]*(h[4]*h[8]-h[5]*h[7]) -
		h[1]*(h[3]*h[8]-h[5]*h[6]) +
		h[2]*(h[3]*h[7]-h[4]*h[6])
}

// Invert returns the inverse transform, normalised so that h22 == 1 where
// possible. ok is false for a singular matrix.
func (h Homography) Invert() (Homography, bool) {
	det := h.Det()
	if math.Abs(det) < detEpsilon || math.IsNaN(det) {
		return Homography{}, false
	}
	inv := Homography{
		(h[4]*h[8] - h[5]*h[7]) / det,
		(h[2]*h[7] - h[1]*h[8]) / det,
		(h[1]*h[5] - h[2]*h[4]) / det,
		(h[5]*h[6] - h[3]*h[8]) / det,
		(h[0]*h[8] - h[2]*h[6]) / det,
		(h[2]*h[3] - h[0]*h[5]) / det,
		(h[3]*h[7] - h[4]*h[6]) / det,
		(h[1]*h[6] - h[0]*h[7]) / det,
		(h[0]*h[4] - h[1]*h[3]) / det,
	}
	if s := inv[8]; math.Abs(s) > pivotEpsilon {
		for i := range inv {
			inv[i] /= s
		}
	}
	return inv, true
}
