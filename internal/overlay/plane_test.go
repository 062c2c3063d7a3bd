package overlay

import (
	"bytes"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/puzzlebox/internal/barcode"
	"github.com/MeKo-Tech/puzzlebox/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlane(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 320, 240))
	p := NewPlane(img, FromCentimeters(32, 24), DefaultOptions())

	assert.InDelta(t, 0.5, p.Opacity, 0)
	assert.True(t, p.DoubleSided)
	assert.InDelta(t, -math.Pi/2, p.RotationX, 1e-12)
	assert.Equal(t, 320, p.Texture.Width)
	assert.Equal(t, 240, p.Texture.Height)
	assert.Same(t, img, p.Image().(*image.NRGBA))

	clamped := NewPlane(nil, FromCentimeters(1, 1), Options{Opacity: 3})
	assert.InDelta(t, 1.0, clamped.Opacity, 0)
	assert.Zero(t, clamped.Texture.Width)
}

func TestManifestRoundTrip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 8))
	p := NewPlane(img, ParseSize("12.5", "10"), DefaultOptions()).WithTexturePath("box.png")

	path := filepath.Join(t.TempDir(), "out", "plane.yaml")
	require.NoError(t, WriteManifest(path, p))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "double_sided: true")
	assert.Contains(t, string(raw), "width_m: 0.125")

	got, err := ReadManifest(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, p.Size, got.Size)
	assert.Equal(t, p.Texture, got.Texture)
	assert.InDelta(t, p.RotationX, got.RotationX, 1e-12)
	assert.Nil(t, got.Image())
}

func TestManifestCodes(t *testing.T) {
	p := NewPlane(image.NewNRGBA(image.Rect(0, 0, 4, 4)), FromCentimeters(10, 10), DefaultOptions())

	var buf bytes.Buffer
	require.NoError(t, p.Encode(&buf))
	assert.NotContains(t, buf.String(), "codes:")

	p = p.WithCodes([]barcode.Code{{Format: barcode.FormatEAN13, Value: "4005556123454"}})
	buf.Reset()
	require.NoError(t, p.Encode(&buf))
	assert.Contains(t, buf.String(), "format: ean13")

	got, err := ReadManifest(&buf)
	require.NoError(t, err)
	require.Len(t, got.Codes, 1)
	assert.Equal(t, "4005556123454", got.Codes[0].Value)
}

func TestReadManifest_Errors(t *testing.T) {
	_, err := ReadManifest(bytes.NewReader([]byte("version: 99\n")))
	require.Error(t, err)

	_, err = ReadManifest(bytes.NewReader([]byte("version: [")))
	require.Error(t, err)
}

func TestExportPDF(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "box.png")
	require.NoError(t, utils.SaveImage(imgPath, image.NewNRGBA(image.Rect(0, 0, 20, 16))))

	out := filepath.Join(dir, "box.pdf")
	require.NoError(t, ExportPDF(imgPath, out, FromCentimeters(12.5, 10)))
	_, err := os.Stat(out)
	require.NoError(t, err)

	require.Error(t, ExportPDF(imgPath, out, PhysicalSize{}))
}
