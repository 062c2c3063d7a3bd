package rectify

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/puzzlebox/internal/skewbox"
	"github.com/MeKo-Tech/puzzlebox/internal/utils"
	"github.com/disintegration/imaging"
)

var (
	quadColor = color.NRGBA{R: 255, A: 255}
	rectColor = color.NRGBA{G: 255, A: 255}
)

func debugPath(dir, kind string) string {
	return filepath.Join(dir, fmt.Sprintf("rect_%s_%d.png", kind, time.Now().UnixNano()))
}

// dumpOverlayPNG writes src with the quadrilateral and its handles drawn on top.
func dumpOverlayPNG(dir string, src image.Image, box skewbox.SkewBox) error {
	canvas := imaging.Clone(src)
	drawBox(canvas, box)
	return utils.SaveImage(debugPath(dir, "overlay"), canvas)
}

// dumpComparePNG writes the annotated source and the corrected image side by side.
func dumpComparePNG(dir string, src image.Image, box skewbox.SkewBox, dst image.Image) error {
	sb := src.Bounds()
	db := dst.Bounds()
	gap := 10
	canvas := imaging.New(sb.Dx()+gap+db.Dx(), max(sb.Dy(), db.Dy()), color.NRGBA{A: 255})
	canvas = imaging.Paste(canvas, src, image.Pt(0, 0))
	xoff := sb.Dx() + gap
	canvas = imaging.Paste(canvas, dst, image.Pt(xoff, 0))

	drawBox(canvas, box)
	utils.DrawRect(canvas, image.Rect(xoff, 0, xoff+db.Dx(), db.Dy()), rectColor, 2)
	return utils.SaveImage(debugPath(dir, "compare"), canvas)
}

// drawBox outlines box in image coordinates, relative to the canvas origin.
func drawBox(canvas *image.NRGBA, box skewbox.SkewBox) {
	ring := box.Ring()
	utils.DrawPolygon(canvas, ring, quadColor, 2)
	for _, p := range ring {
		utils.DrawHandle(canvas, p, 3, quadColor)
	}
}
