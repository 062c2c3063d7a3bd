package pdf

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/puzzlebox/internal/utils"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	path := filepath.Join(dir, "texture.png")
	require.NoError(t, utils.SaveImage(path, img))
	return path
}

func TestImportImage_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	imgPath := writeTestPNG(t, dir, 64, 48)
	out := filepath.Join(dir, "print", "box.pdf")

	require.NoError(t, ImportImage(imgPath, out, 12.5, 10))
	// A second export replaces rather than appends.
	require.NoError(t, ImportImage(imgPath, out, 12.5, 10))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	images, err := ExtractImages(out, 0)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, 64, images[0].Bounds().Dx())
	assert.Equal(t, 48, images[0].Bounds().Dy())

	first, err := FirstImage(out)
	require.NoError(t, err)
	assert.Equal(t, images[0].Bounds(), first.Bounds())
}

func TestPageCountAndFirstImage_MultiPage(t *testing.T) {
	dir := t.TempDir()
	first := writeTestPNG(t, dir, 64, 48)
	second := filepath.Join(dir, "back.png")
	require.NoError(t, utils.SaveImage(second, image.NewNRGBA(image.Rect(0, 0, 20, 10))))

	out := filepath.Join(dir, "scan.pdf")
	imp, err := api.Import("dimensions:10 8, position:full", types.CENTIMETRES)
	require.NoError(t, err)
	require.NoError(t, api.ImportImagesFile([]string{first, second}, out, imp, nil))

	pages, err := PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 2, pages)

	img, err := FirstImage(out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())

	_, err = PageCount(filepath.Join(dir, "missing.pdf"))
	require.Error(t, err)
}

func TestImportImage_Errors(t *testing.T) {
	dir := t.TempDir()
	imgPath := writeTestPNG(t, dir, 8, 8)

	require.Error(t, ImportImage(imgPath, filepath.Join(dir, "a.pdf"), 0, 10))
	require.Error(t, ImportImage(filepath.Join(dir, "missing.png"), filepath.Join(dir, "b.pdf"), 10, 10))
}

func TestExtractImages_Errors(t *testing.T) {
	_, err := ExtractImages("missing.pdf", 0)
	require.Error(t, err)

	_, err = ExtractImages("missing.pdf", -1)
	require.Error(t, err)
}

func TestCollectExtractedImages(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, 5, 4)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("nope"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	images, err := collectExtractedImages(dir)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, image.Rect(0, 0, 5, 4), images[0].Bounds())
}

func TestLoadInput(t *testing.T) {
	dir := t.TempDir()
	imgPath := writeTestPNG(t, dir, 40, 30)
	pdfPath := filepath.Join(dir, "scan.PDF")
	require.NoError(t, ImportImage(imgPath, pdfPath, 20, 15))

	img, err := LoadInput(imgPath)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())

	img, err = LoadInput(pdfPath)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())

	_, err = LoadInput(filepath.Join(dir, "missing.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.pdf")
}
