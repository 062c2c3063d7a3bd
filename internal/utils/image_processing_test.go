package utils

import (
	"image"
	"image/color"
	"testing"

	"github.com/MeKo-Tech/puzzlebox/internal/mempool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToNRGBA(t *testing.T) {
	n := testImage(3, 3)
	assert.Same(t, n, ToNRGBA(n), "zero-origin NRGBA is reused")

	sub := n.SubImage(image.Rect(1, 1, 3, 3))
	out := ToNRGBA(sub)
	assert.Equal(t, image.Rect(0, 0, 2, 2), out.Bounds())
	assert.Equal(t, n.NRGBAAt(1, 1), out.NRGBAAt(0, 0))

	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.SetGray(1, 0, color.Gray{Y: 200})
	assert.Equal(t, color.NRGBA{R: 200, G: 200, B: 200, A: 255}, ToNRGBA(gray).NRGBAAt(1, 0))
}

func TestNormalizeImagePooled(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 0, B: 51, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 0, G: 255, B: 0, A: 255})

	data, w, h, err := NormalizeImagePooled(img)
	require.NoError(t, err)
	defer mempool.PutFloat32(data)

	assert.Equal(t, 2, w)
	assert.Equal(t, 1, h)
	require.Len(t, data, 6)
	assert.InDelta(t, 1.0, data[0], 1e-6) // R(0,0)
	assert.InDelta(t, 0.0, data[1], 1e-6) // R(1,0)
	assert.InDelta(t, 1.0, data[3], 1e-6) // G(1,0)
	assert.InDelta(t, 0.2, data[4], 1e-6) // B(0,0)
}

func TestNormalizeImagePooled_Errors(t *testing.T) {
	_, _, _, err := NormalizeImagePooled(nil)
	require.Error(t, err)

	_, _, _, err = NormalizeImagePooled(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	require.Error(t, err)
}
