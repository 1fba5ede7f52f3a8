package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento/internal/focus"
	"memento/internal/ink"
	"memento/internal/interaction"
	"memento/internal/page"
	"memento/pkg/colorutil"
	"memento/pkg/geometry"
)

func newController() *interaction.Controller {
	model := page.NewModel(geometry.NewSize(1060, 583), colorutil.White)
	layer := ink.NewLayer(ink.DefaultStyle(), ink.MinWidth, ink.MaxWidth)
	machine := focus.NewMachine(model, focus.NewArena(), focus.NewZones(), nil)
	return interaction.New(model, layer, machine, interaction.Options{})
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memento", prefsFile)
	p := LoadFrom(path)
	assert.Equal(t, 1.5, p.FloatWithFallback(KeyZoom, 1.5))

	p.SetFloat(KeyZoom, 2)
	p.SetString(KeyLastDir, "/tmp/pages")
	require.NoError(t, p.Save())

	q := LoadFrom(path)
	assert.Equal(t, 2.0, q.FloatWithFallback(KeyZoom, 1))
	assert.Equal(t, "/tmp/pages", q.String(KeyLastDir))
}

func TestSaveIfChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefsFile)
	p := LoadFrom(path)

	require.NoError(t, p.SaveIfChanged())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	p.SetString(KeyLastDir, "x")
	require.NoError(t, p.SaveIfChanged())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestCaptureRestore(t *testing.T) {
	p := LoadFrom(filepath.Join(t.TempDir(), prefsFile))

	c := newController()
	c.SetPenColor(colorutil.MustParseHex(colorutil.PenColors[4]))
	c.SetPenWidth(12)
	c.SetTextColor(colorutil.MustParseHex(colorutil.TextColors[6]))
	p.Capture(c)

	d := newController()
	p.Restore(d)
	style := d.Ink().Style()
	assert.Equal(t, colorutil.MustParseHex(colorutil.PenColors[4]), style.Color)
	assert.Equal(t, 12.0, style.Width)
	assert.Equal(t, colorutil.MustParseHex(colorutil.TextColors[6]), d.TextColor())
}

func TestRestoreIgnoresColorsOutsidePalette(t *testing.T) {
	p := LoadFrom(filepath.Join(t.TempDir(), prefsFile))
	p.SetString(KeyPenColor, "#123456")

	c := newController()
	before := c.Ink().Style().Color
	p.Restore(c)
	assert.Equal(t, before, c.Ink().Style().Color)
}
