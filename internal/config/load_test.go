package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento/internal/interaction"
	"memento/pkg/colorutil"
	"memento/pkg/geometry"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1060.30, cfg.Page.Width)
	assert.Equal(t, 583.31, cfg.Page.Height)
	assert.Equal(t, colorutil.White, cfg.BackgroundColor())
	assert.Equal(t, 50*time.Millisecond, cfg.Export.SettleDelay)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, interaction.DefaultConfig(), cfg.Interaction())
	assert.Equal(t, 1.0, cfg.Tools.FontSizeStep)
	assert.Equal(t, 5.0, cfg.InkStyle().Width)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, "memento.yaml", `
page:
  width: 800
  height: 600
  background: "#FFF7B1"
tools:
  font_size: 20
export:
  scale: 2
  settle_delay: 0s
upload:
  dir: /tmp/out
  base_url: http://localhost:3000/uploads
`)
	t.Setenv("MEMENTO_PAGE_HEIGHT", "500")
	t.Setenv("MEMENTO_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, geometry.NewSize(800, 500), cfg.PageSize())
	assert.Equal(t, "#FFF7B1", colorutil.Hex(cfg.BackgroundColor()))
	assert.Equal(t, 20.0, cfg.Tools.FontSize)
	assert.Equal(t, 2.0, cfg.Export.Scale)
	assert.Equal(t, time.Duration(0), cfg.Export.SettleDelay)
	assert.Equal(t, "/tmp/out", cfg.Upload.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, 40.0, cfg.Tools.LineWidthMax)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1060.30, cfg.Page.Width)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Page.Width = 0 }},
		{"bad background", func(c *Config) { c.Page.Background = "pink" }},
		{"inverted line widths", func(c *Config) { c.Tools.LineWidthMax = 0.5 }},
		{"line width outside range", func(c *Config) { c.Tools.LineWidth = 41 }},
		{"font size outside range", func(c *Config) { c.Tools.FontSize = 8 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad base url", func(c *Config) { c.Upload.BaseURL = "not a url" }},
		{"scale too large", func(c *Config) { c.Export.Scale = 20 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestValidationReportsField(t *testing.T) {
	cfg := Default()
	cfg.Tools.PenColor = "#12"
	err := Validate(cfg)
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "PenColor", verrs[0].Field())
}
