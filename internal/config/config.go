// Package config loads the composer settings from defaults, an optional config
// file and MEMENTO_* environment variables.
package config

import (
	"image/color"
	"time"

	"memento/internal/ink"
	"memento/internal/interaction"
	"memento/pkg/colorutil"
	"memento/pkg/geometry"
)

// Config holds all application configuration.
type Config struct {
	Page   PageConfig   `mapstructure:"page" validate:"required"`
	Tools  ToolsConfig  `mapstructure:"tools" validate:"required"`
	Export ExportConfig `mapstructure:"export" validate:"required"`
	Upload UploadConfig `mapstructure:"upload" validate:"required"`
	Log    LogConfig    `mapstructure:"log" validate:"required"`
}

// PageConfig is the fixed page geometry.
type PageConfig struct {
	Width      float64 `mapstructure:"width" validate:"gt=0"`
	Height     float64 `mapstructure:"height" validate:"gt=0"`
	Background string  `mapstructure:"background" validate:"required,rgbhex"`
}

// ToolsConfig holds the editing tool parameters.
type ToolsConfig struct {
	LineWidthMin float64 `mapstructure:"line_width_min" validate:"gt=0"`
	LineWidthMax float64 `mapstructure:"line_width_max" validate:"gtefield=LineWidthMin"`
	LineWidth    float64 `mapstructure:"line_width" validate:"gt=0"`
	PenColor     string  `mapstructure:"pen_color" validate:"required,rgbhex"`

	FontSizeMin  float64 `mapstructure:"font_size_min" validate:"gt=0"`
	FontSizeMax  float64 `mapstructure:"font_size_max" validate:"gtefield=FontSizeMin"`
	FontSize     float64 `mapstructure:"font_size" validate:"gt=0"`
	FontSizeStep float64 `mapstructure:"font_size_step" validate:"gt=0"`
	TextColor    string  `mapstructure:"text_color" validate:"required,rgbhex"`

	HandleSize     float64 `mapstructure:"handle_size" validate:"gt=0"`
	MinVisualWidth float64 `mapstructure:"min_visual_width" validate:"gt=0"`
	TextMinWidth   float64 `mapstructure:"text_min_width" validate:"gt=0"`
	TextMinHeight  float64 `mapstructure:"text_min_height" validate:"gt=0"`

	TextAnchorX float64 `mapstructure:"text_anchor_x" validate:"gte=0"`
	TextAnchorY float64 `mapstructure:"text_anchor_y" validate:"gte=0"`
	TextWidth   float64 `mapstructure:"text_width" validate:"gt=0"`

	ImageAnchorX float64 `mapstructure:"image_anchor_x" validate:"gte=0"`
	ImageAnchorY float64 `mapstructure:"image_anchor_y" validate:"gte=0"`
	ImageSize    float64 `mapstructure:"image_size" validate:"gt=0"`

	StickerAreaX      float64 `mapstructure:"sticker_area_x" validate:"gte=0"`
	StickerAreaY      float64 `mapstructure:"sticker_area_y" validate:"gte=0"`
	StickerAreaWidth  float64 `mapstructure:"sticker_area_width" validate:"gte=0"`
	StickerAreaHeight float64 `mapstructure:"sticker_area_height" validate:"gte=0"`
}

// ExportConfig controls rasterization.
type ExportConfig struct {
	Scale       float64       `mapstructure:"scale" validate:"gt=0,lte=8"`
	SettleDelay time.Duration `mapstructure:"settle_delay" validate:"gte=0"`
}

// UploadConfig configures the directory uploader.
type UploadConfig struct {
	Dir     string `mapstructure:"dir" validate:"required"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
}

// LogConfig configures logging. An unknown level falls back to info when the
// logger is set up.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// PageSize returns the page bounds.
func (c *Config) PageSize() geometry.Size {
	return geometry.NewSize(c.Page.Width, c.Page.Height)
}

// BackgroundColor returns the parsed page background.
func (c *Config) BackgroundColor() color.RGBA {
	return colorutil.MustParseHex(c.Page.Background)
}

// InkStyle returns the initial pen style.
func (c *Config) InkStyle() ink.Style {
	return ink.Style{
		Color: colorutil.MustParseHex(c.Tools.PenColor),
		Width: c.Tools.LineWidth,
	}
}

// Interaction returns the controller parameters.
func (c *Config) Interaction() interaction.Config {
	t := c.Tools
	return interaction.Config{
		HandleSize:       t.HandleSize,
		MinVisualWidth:   t.MinVisualWidth,
		TextMinSize:      geometry.NewSize(t.TextMinWidth, t.TextMinHeight),
		TextAnchor:       geometry.NewPoint2D(t.TextAnchorX, t.TextAnchorY),
		TextWidth:        t.TextWidth,
		TextColor:        colorutil.MustParseHex(t.TextColor),
		FontSize:         t.FontSize,
		MinFontSize:      t.FontSizeMin,
		MaxFontSize:      t.FontSizeMax,
		FontSizeStep:     t.FontSizeStep,
		ImageAnchor:      geometry.NewPoint2D(t.ImageAnchorX, t.ImageAnchorY),
		ImageDefaultSize: t.ImageSize,
		StickerScatter:   geometry.NewRect(t.StickerAreaX, t.StickerAreaY, t.StickerAreaWidth, t.StickerAreaHeight),
	}
}
