package skewbox

import (
	"image"

	"github.com/MeKo-Tech/puzzlebox/internal/utils"
	"github.com/disintegration/imaging"
)

// DisplayScale is the factor between image pixels and display units.
const DisplayScale = 2.0

// ImageToDisplay converts an image-space point (origin top-left, full
// resolution) into display space (origin bottom-left, half resolution).
// displayHeight is the height of the surface the display point is measured on.
func ImageToDisplay(p utils.Point, displayHeight float64) utils.Point {
	return utils.Point{X: p.X / DisplayScale, Y: displayHeight - p.Y/DisplayScale}
}

// DisplayToImage is the inverse of ImageToDisplay for the same displayHeight.
func DisplayToImage(p utils.Point, displayHeight float64) utils.Point {
	return utils.Point{X: p.X * DisplayScale, Y: DisplayScale * (displayHeight - p.Y)}
}

// BoxToDisplay maps every corner of b into display space.
func BoxToDisplay(b SkewBox, displayHeight float64) SkewBox {
	return SkewBox{
		TopLeft:     ImageToDisplay(b.TopLeft, displayHeight),
		TopRight:    ImageToDisplay(b.TopRight, displayHeight),
		BottomLeft:  ImageToDisplay(b.BottomLeft, displayHeight),
		BottomRight: ImageToDisplay(b.BottomRight, displayHeight),
	}
}

// DisplayHeightFor returns the display surface height that shows an image of
// the given pixel height at display scale.
func DisplayHeightFor(imageHeight int) float64 {
	return float64(imageHeight) / DisplayScale
}

// DisplayPreview renders img at display resolution for the adjustment surface.
func DisplayPreview(img image.Image) *image.NRGBA {
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())/DisplayScale))
	h := max(1, int(float64(b.Dy())/DisplayScale))
	return imaging.Resize(img, w, h, imaging.Linear)
}
