package utils

import (
	"errors"
	"fmt"
	"image"

	"github.com/MeKo-Tech/puzzlebox/internal/mempool"
	"github.com/disintegration/imaging"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// ToNRGBA returns img as a zero-origin *image.NRGBA, copying only when needed.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

// NormalizeImagePooled normalizes an image using memory pooling for the output buffer.
// The caller should return the buffer to the pool via mempool.PutFloat32 when done.
// Converts to RGB (drops alpha), scales pixel values from 0-255 to 0-1,
// and lays channels out as NCHW for ONNX.
func NormalizeImagePooled(img image.Image) ([]float32, int, int, error) {
	if img == nil {
		return nil, 0, 0, &ImageProcessingError{Operation: "normalize", Err: errors.New("input image is nil")}
	}

	nrgba := ToNRGBA(img)
	bounds := nrgba.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= 0 || height <= 0 {
		return nil, 0, 0, &ImageProcessingError{Operation: "normalize", Err: errors.New("invalid image dimensions")}
	}

	plane := width * height
	tensor := mempool.GetFloat32(3 * plane)

	for y := range height {
		row := nrgba.Pix[y*nrgba.Stride:]
		for x := range width {
			px := row[x*4 : x*4+4]
			idx := y*width + x
			tensor[idx] = float32(px[0]) / 255.0
			tensor[plane+idx] = float32(px[1]) / 255.0
			tensor[2*plane+idx] = float32(px[2]) / 255.0
		}
	}

	return tensor, width, height, nil
}
