package detector

import (
	"testing"

	"github.com/MeKo-Tech/puzzlebox/internal/skewbox"
	"github.com/MeKo-Tech/puzzlebox/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCorners(t *testing.T) {
	t.Run("normalised", func(t *testing.T) {
		box, err := decodeCorners([]float32{0.1, 0.2, 0.9, 0.2, 0.1, 0.8, 0.9, 0.8, 0.5}, 100, 50)
		require.NoError(t, err)
		assert.InDelta(t, 10.0, box.TopLeft.X, 1e-4)
		assert.InDelta(t, 10.0, box.TopLeft.Y, 1e-4)
		assert.InDelta(t, 90.0, box.BottomRight.X, 1e-4)
		assert.InDelta(t, 40.0, box.BottomRight.Y, 1e-4)
	})

	t.Run("pixels are clamped", func(t *testing.T) {
		box, err := decodeCorners([]float32{-5, 3, 120, 4, 6, 48, 95, 70}, 100, 50)
		require.NoError(t, err)
		assert.Equal(t, utils.Pt(0, 3), box.TopLeft)
		assert.Equal(t, utils.Pt(100, 4), box.TopRight)
		assert.Equal(t, utils.Pt(95, 50), box.BottomRight)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := decodeCorners([]float32{1, 2, 3}, 100, 50)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCheckCorners(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		box  skewbox.SkewBox
		ok   bool
	}{
		{"lid shaped", skewbox.New(utils.Pt(100, 80), utils.Pt(400, 90), utils.Pt(95, 470), utils.Pt(405, 460)), true},
		{"landscape lid", skewbox.New(utils.Pt(50, 100), utils.Pt(450, 100), utils.Pt(50, 400), utils.Pt(450, 400)), true},
		{"too small", skewbox.New(utils.Pt(10, 10), utils.Pt(60, 10), utils.Pt(10, 75), utils.Pt(60, 75)), false},
		{"sliver", skewbox.New(utils.Pt(0, 200), utils.Pt(512, 200), utils.Pt(0, 280), utils.Pt(512, 280)), false},
		{"corners too close", skewbox.New(utils.Pt(100, 100), utils.Pt(110, 100), utils.Pt(100, 400), utils.Pt(400, 400)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkCorners(tt.box, 512, 512, cfg)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrNotFound)
			}
		})
	}
}
