// Package prefs provides JSON-based application preferences.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"memento/internal/interaction"
	"memento/pkg/colorutil"
)

const prefsFile = "preferences.json"

// Preference keys.
const (
	KeyPenColor  = "penColor"
	KeyPenWidth  = "penWidth"
	KeyTextColor = "textColor"
	KeyZoom      = "zoom"
	KeyLastDir   = "lastDirectory"
)

// Prefs stores application preferences as a key-value map.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]interface{}
	path   string
	dirty  bool
}

// Load reads preferences from ~/.config/memento/preferences.json.
// Returns a Prefs with defaults if the file doesn't exist.
func Load() *Prefs {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return LoadFrom(filepath.Join(configDir, "memento", prefsFile))
}

// LoadFrom reads preferences from path.
func LoadFrom(path string) *Prefs {
	p := &Prefs{
		values: make(map[string]interface{}),
		path:   path,
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(data, &p.values)
	return p
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.Lock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.dirty = false
	p.mu.Unlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

// SaveIfChanged writes preferences only when a value changed since the last
// save.
func (p *Prefs) SaveIfChanged() error {
	p.mu.RLock()
	dirty := p.dirty
	p.mu.RUnlock()
	if !dirty {
		return nil
	}
	return p.Save()
}

// FloatWithFallback returns a float64 preference, or fallback if not set.
func (p *Prefs) FloatWithFallback(key string, fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return fallback
}

// SetFloat stores a float64 preference.
func (p *Prefs) SetFloat(key string, val float64) {
	p.set(key, val)
}

// String returns a string preference, or "" if not set.
func (p *Prefs) String(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SetString stores a string preference.
func (p *Prefs) SetString(key string, val string) {
	p.set(key, val)
}

func (p *Prefs) set(key string, val interface{}) {
	p.mu.Lock()
	if p.values[key] != val {
		p.values[key] = val
		p.dirty = true
	}
	p.mu.Unlock()
}

// Restore applies the remembered pen and text style to the controller.
// Colors outside the tool palettes are ignored.
func (p *Prefs) Restore(c *interaction.Controller) {
	if hex := p.String(KeyPenColor); hex != "" && colorutil.InPalette(colorutil.PenColors, hex) {
		c.SetPenColor(colorutil.MustParseHex(hex))
	}
	if w := p.FloatWithFallback(KeyPenWidth, 0); w > 0 {
		c.SetPenWidth(w)
	}
	if hex := p.String(KeyTextColor); hex != "" && colorutil.InPalette(colorutil.TextColors, hex) {
		c.SetTextColor(colorutil.MustParseHex(hex))
	}
}

// Capture remembers the controller's current pen and text style.
func (p *Prefs) Capture(c *interaction.Controller) {
	style := c.Ink().Style()
	if !style.Erase {
		p.SetString(KeyPenColor, colorutil.Hex(style.Color))
	}
	p.SetFloat(KeyPenWidth, style.Width)
	p.SetString(KeyTextColor, colorutil.Hex(c.TextColor()))
}
