package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#FF7F9E", color.RGBA{R: 0xFF, G: 0x7F, B: 0x9E, A: 0xFF}},
		{"ff7f9e", color.RGBA{R: 0xFF, G: 0x7F, B: 0x9E, A: 0xFF}},
		{"#fff", color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}},
		{"#00000080", color.RGBA{A: 0x80}},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseHex("#12345")
	assert.Error(t, err)
	_, err = ParseHex("#GGGGGG")
	assert.Error(t, err)
}

func TestHexRoundTrip(t *testing.T) {
	for _, hex := range BackgroundColors {
		assert.Equal(t, hex, Hex(MustParseHex(hex)))
	}
	assert.Equal(t, "#00000080", Hex(color.RGBA{A: 0x80}))
}

func TestInPalette(t *testing.T) {
	assert.True(t, InPalette(PenColors, "#ff7f9e"))
	assert.False(t, InPalette(PenColors, "#123456"))
}
