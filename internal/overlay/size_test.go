package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize_DefaultsEmptyHeight(t *testing.T) {
	s := ParseSize("12.5", "")
	assert.InDelta(t, 0.125, s.Width, 1e-12)
	assert.InDelta(t, 0.01, s.Height, 1e-12)
}

func TestParseSize_BothInvalid(t *testing.T) {
	s := ParseSize("abc", "-4")
	assert.Equal(t, FromCentimeters(1, 1), s)
}

func TestParseCentimeters(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"12.5", 12.5, true},
		{"  30 ", 30, true},
		{"7,25", 7.25, true},
		{"１２．５", 12.5, true},
		{"40cm", 40, true},
		{"40 cm", 40, true},
		{"1e1", 10, true},
		{"", 0, false},
		{"   ", 0, false},
		{"abc", 0, false},
		{"1,000.5", 0, false},
		{"1,2,3", 0, false},
		{"0", 0, false},
		{"-3", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCentimeters(tt.input)
			if !tt.ok {
				require.ErrorIs(t, err, ErrInvalidSize)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestPhysicalSize(t *testing.T) {
	s := FromCentimeters(50, 40)
	w, h := s.Centimeters()
	assert.InDelta(t, 50.0, w, 1e-12)
	assert.InDelta(t, 40.0, h, 1e-12)
	assert.InDelta(t, 1.25, s.Aspect(), 1e-12)
	assert.Equal(t, "50cm x 40cm", s.String())
	assert.Zero(t, PhysicalSize{Width: 1}.Aspect())
}
