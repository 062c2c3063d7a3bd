package overlay

import (
	"errors"

	"github.com/MeKo-Tech/puzzlebox/internal/pdf"
)

// ExportPDF writes a single-page PDF whose page is exactly the physical size
// of the plane, filled by the texture image at imagePath. Printed at 100%
// scale the page lines up with the real box lid.
func ExportPDF(imagePath, outPath string, size PhysicalSize) error {
	if size.Width <= 0 || size.Height <= 0 {
		return errors.New("pdf export needs a positive size")
	}
	w, h := size.Centimeters()
	return pdf.ImportImage(imagePath, outPath, w, h)
}
