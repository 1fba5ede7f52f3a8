package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// MementoTheme provides a custom theme for the application.
type MementoTheme struct{}

var _ fyne.Theme = (*MementoTheme)(nil)

func (t *MementoTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0xFF, G: 0x90, B: 0xBB, A: 0xFF} // matches the resize handle
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0xFF, G: 0x90, B: 0xBB, A: 0x60}
	case theme.ColorNameFocus:
		return color.NRGBA{R: 0xFF, G: 0x7F, B: 0x9E, A: 0x80}
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *MementoTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *MementoTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *MementoTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameInlineIcon:
		return 24 // palette swatches and tool icons
	default:
		return theme.DefaultTheme().Size(name)
	}
}
