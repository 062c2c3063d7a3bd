package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/MeKo-Tech/puzzlebox/internal/utils"
)

// ImageSize represents common image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	// Common test image sizes.
	SmallSize  = ImageSize{320, 240}
	MediumSize = ImageSize{640, 480}
)

// Colours used by GeneratePuzzleBox.
var (
	TableColor = color.NRGBA{R: 90, G: 60, B: 40, A: 255}
	LeftColor  = color.NRGBA{R: 220, G: 40, B: 40, A: 255}
	RightColor = color.NRGBA{R: 40, G: 60, B: 220, A: 255}
	LabelColor = color.NRGBA{A: 255}
)

// PuzzleBoxConfig describes a synthetic photo of a puzzle box lid lying on a table.
type PuzzleBoxConfig struct {
	Size ImageSize
	// Lid corners in image space: top-left, top-right, bottom-left, bottom-right.
	Corners [4]utils.Point
	Label   string
}

// DefaultPuzzleBoxConfig returns a lid photographed at a slant on a medium image.
func DefaultPuzzleBoxConfig() PuzzleBoxConfig {
	return PuzzleBoxConfig{
		Size: MediumSize,
		Corners: [4]utils.Point{
			{X: 140, Y: 90},
			{X: 520, Y: 110},
			{X: 100, Y: 400},
			{X: 560, Y: 380},
		},
		Label: "1000 PIECES",
	}
}

// GeneratePuzzleBox draws the lid as a quadrilateral whose left half is
// LeftColor and right half RightColor, on a TableColor background, with the
// label centred on the lid.
func GeneratePuzzleBox(cfg PuzzleBoxConfig) *image.NRGBA {
	img := imaging.New(cfg.Size.Width, cfg.Size.Height, TableColor)
	tl, tr, bl, br := cfg.Corners[0], cfg.Corners[1], cfg.Corners[2], cfg.Corners[3]
	ring := []utils.Point{tl, tr, br, bl}

	for y := range cfg.Size.Height {
		for x := range cfg.Size.Width {
			p := utils.Pt(float64(x)+0.5, float64(y)+0.5)
			if !insideConvex(ring, p) {
				continue
			}
			dl := lineDistance(tl, bl, p)
			dr := lineDistance(tr, br, p)
			if dl <= dr {
				img.SetNRGBA(x, y, LeftColor)
			} else {
				img.SetNRGBA(x, y, RightColor)
			}
		}
	}

	if cfg.Label != "" {
		cx := (tl.X + tr.X + bl.X + br.X) / 4
		cy := (tl.Y + tr.Y + bl.Y + br.Y) / 4
		face := basicfont.Face7x13
		w := font.MeasureString(face, cfg.Label).Ceil()
		d := &font.Drawer{Dst: img, Src: image.NewUniform(LabelColor), Face: face}
		d.Dot = fixed.P(int(cx)-w/2, int(cy)+face.Metrics().Ascent.Ceil()/2)
		d.DrawString(cfg.Label)
	}
	return img
}

func insideConvex(ring []utils.Point, p utils.Point) bool {
	sign := 0.0
	for i := range ring {
		c := utils.Cross(ring[i], ring[(i+1)%len(ring)], p)
		if c == 0 {
			continue
		}
		if sign == 0 {
			sign = c
		} else if (c > 0) != (sign > 0) {
			return false
		}
	}
	return true
}

func lineDistance(a, b, p utils.Point) float64 {
	return math.Abs(utils.Cross(a, b, p)) / utils.Distance(a, b)
}

// SolidImage returns a w x h image filled with col.
func SolidImage(w, h int, col color.Color) *image.NRGBA {
	return imaging.New(w, h, col)
}

// EncodePNG returns img encoded as PNG.
func EncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img), "Failed to encode PNG image")
	return buf.Bytes()
}

// SaveImage saves an image as PNG to the specified path.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750), "Failed to create directory for %s", path)
	require.NoError(t, os.WriteFile(path, EncodePNG(t, img), 0o600), "Failed to write %s", path)
}

// LoadImage loads an image from the specified path.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()

	file, err := os.Open(path) //nolint:gosec // G304: Test file reading with controlled path
	require.NoError(t, err, "Failed to open image file %s", path)
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	require.NoError(t, err, "Failed to decode image")
	return img
}

// ColorNear reports whether two colours differ by at most tol per channel.
func ColorNear(a, b color.Color, tol uint8) bool {
	ca := color.NRGBAModel.Convert(a).(color.NRGBA)
	cb := color.NRGBAModel.Convert(b).(color.NRGBA)
	near := func(x, y uint8) bool {
		if x > y {
			return x-y <= tol
		}
		return y-x <= tol
	}
	return near(ca.R, cb.R) && near(ca.G, cb.G) && near(ca.B, cb.B) && near(ca.A, cb.A)
}
