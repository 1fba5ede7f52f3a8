// Package ink captures freehand strokes drawn over the page while drawing
// mode is on, and rasterizes them as an independent layer.
package ink

import (
	"image/color"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"memento/internal/page"
	"memento/pkg/colorutil"
	"memento/pkg/geometry"
)

const (
	MinWidth     = 1.0
	MaxWidth     = 40.0
	DefaultWidth = 5.0
)

// Style is the drawing style a new stroke snapshots when it begins.
type Style struct {
	Color color.RGBA
	Width float64
	Erase bool
}

// DefaultStyle is a black 5-unit pen.
func DefaultStyle() Style {
	return Style{Color: colorutil.Black, Width: DefaultWidth}
}

// Layer holds the ordered strokes of a page. Strokes are only created while
// the layer is enabled (drawing mode) and become immutable once sealed.
type Layer struct {
	mu sync.RWMutex

	enabled bool
	style   Style
	minW    float64
	maxW    float64

	strokes []page.Stroke
	active  *page.Stroke

	// version increases whenever a stroke is sealed or the layer is cleared.
	version uint64
}

// NewLayer creates an empty, disabled layer with width limits [minW, maxW].
func NewLayer(style Style, minW, maxW float64) *Layer {
	if minW <= 0 {
		minW = MinWidth
	}
	if maxW < minW {
		maxW = MaxWidth
	}
	l := &Layer{minW: minW, maxW: maxW}
	l.style = style
	l.style.Width = geometry.Clamp(style.Width, minW, maxW)
	return l
}

// SetEnabled switches drawing mode. Disabling seals an open stroke.
func (l *Layer) SetEnabled(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !on {
		l.sealLocked()
	}
	l.enabled = on
}

// Enabled reports whether drawing mode is on.
func (l *Layer) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabled
}

// Style returns the current drawing style.
func (l *Layer) Style() Style {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.style
}

// SetColor picks a pen color. Choosing a color leaves erase mode.
func (l *Layer) SetColor(c color.RGBA) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.style.Color = c
	l.style.Erase = false
}

// SetWidth sets the pen width, clamped to the layer limits.
func (l *Layer) SetWidth(w float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.style.Width = geometry.Clamp(w, l.minW, l.maxW)
}

// SetErase toggles erase mode.
func (l *Layer) SetErase(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.style.Erase = on
}

// Begin opens a stroke with the current style. It reports false when drawing
// mode is off or a stroke is already open.
func (l *Layer) Begin() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled || l.active != nil {
		return false
	}
	l.active = &page.Stroke{
		Color: l.style.Color,
		Width: l.style.Width,
		Erase: l.style.Erase,
	}
	return true
}

// Append adds a point to the open stroke. Points arriving with no open
// stroke, and exact repeats of the previous point, are dropped.
func (l *Layer) Append(p geometry.Point2D) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == nil {
		return false
	}
	if n := len(l.active.Points); n > 0 {
		last := l.active.Points[n-1]
		if r2.Norm(r2.Sub(toVec(p), toVec(last))) == 0 {
			return false
		}
	}
	l.active.Points = append(l.active.Points, p)
	return true
}

// Seal closes the open stroke. Strokes without points are discarded.
func (l *Layer) Seal() (page.Stroke, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sealLocked()
}

func (l *Layer) sealLocked() (page.Stroke, bool) {
	if l.active == nil {
		return page.Stroke{}, false
	}
	s := *l.active
	l.active = nil
	if len(s.Points) == 0 {
		return page.Stroke{}, false
	}
	l.strokes = append(l.strokes, s)
	l.version++
	return s.Clone(), true
}

// Discard drops the open stroke without recording it.
func (l *Layer) Discard() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = nil
}

// Drawing reports whether a stroke is open.
func (l *Layer) Drawing() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active != nil
}

// Strokes returns copies of the sealed strokes in drawing order.
func (l *Layer) Strokes() []page.Stroke {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]page.Stroke, len(l.strokes))
	for i, s := range l.strokes {
		out[i] = s.Clone()
	}
	return out
}

// Active returns a copy of the open stroke for live preview.
func (l *Layer) Active() (page.Stroke, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.active == nil {
		return page.Stroke{}, false
	}
	return l.active.Clone(), true
}

// Clear removes every stroke.
func (l *Layer) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.strokes = nil
	l.active = nil
	l.version++
}

// Version returns the layer's mutation counter.
func (l *Layer) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

func toVec(p geometry.Point2D) r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}
