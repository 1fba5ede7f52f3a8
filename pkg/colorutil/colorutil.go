// Package colorutil provides shared color utilities and the fixed palettes
// offered by the page tools.
package colorutil

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Common colors used throughout the application.
var (
	Black       = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Transparent = color.RGBA{}

	// HandleColor is the resize handle fill shown on focused elements.
	HandleColor = color.RGBA{R: 0xFF, G: 0x90, B: 0xBB, A: 255}
	// OutlineColor is the dashed selection border.
	OutlineColor = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 255}
)

// PenColors are the ink colors offered by the drawing panel.
var PenColors = []string{"#000000", "#FFFFFF", "#FF7F9E", "#F6B8B8", "#FFE08A", "#8FD9A8", "#4DB8FF", "#9AA7FF"}

// BackgroundColors are the page fills offered by the background panel.
var BackgroundColors = []string{"#000000", "#FFFFFF", "#FFB6C1", "#FADADD", "#FFF1E6", "#FFF7B1", "#B7E4C7", "#E3F6F5", "#A9D1FF", "#C2C9FF"}

// TextColors are the glyph colors offered by the text panel.
var TextColors = []string{"#000000", "#FFFFFF", "#FF7F9E", "#FFE08A", "#8FD9A8", "#4DB8FF", "#9AA7FF", "#B84AFF"}

// ParseHex parses "#RGB", "#RRGGBB" or "#RRGGBBAA" (leading '#' optional).
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// MustParseHex is ParseHex for palette constants; it returns black on error.
func MustParseHex(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		return Black
	}
	return c
}

// Hex formats a color as "#RRGGBB", appending alpha only when not opaque.
func Hex(c color.Color) string {
	r, g, b, a := c.RGBA()
	if a == 0xffff {
		return fmt.Sprintf("#%02X%02X%02X", r>>8, g>>8, b>>8)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", r>>8, g>>8, b>>8, a>>8)
}

// InPalette reports whether hex names one of the palette entries (case-insensitive).
func InPalette(palette []string, hex string) bool {
	for _, p := range palette {
		if strings.EqualFold(p, hex) {
			return true
		}
	}
	return false
}
