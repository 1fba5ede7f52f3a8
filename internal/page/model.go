package page

import (
	"errors"
	"image/color"
	"sort"
	"sync"

	"memento/pkg/geometry"
)

// ErrNotFound is returned when an element ID is not in the model.
var ErrNotFound = errors.New("element not found")

// Stroke is one continuous freehand ink path. It is immutable once sealed.
type Stroke struct {
	Points []geometry.Point2D
	Color  color.RGBA
	Width  float64
	Erase  bool
}

// Clone returns a deep copy of the stroke.
func (s Stroke) Clone() Stroke {
	s.Points = append([]geometry.Point2D(nil), s.Points...)
	return s
}

// Snapshot is a detached copy of the page taken for rendering.
type Snapshot struct {
	Bounds     geometry.Size
	Background color.RGBA
	Elements   []*Element // ordered back to front
	Strokes    []Stroke
	Version    uint64
}

// Model is the single authoritative store of a page's elements.
// It performs no geometry validation; callers run the constraint solver first.
type Model struct {
	mu sync.RWMutex

	bounds     geometry.Size
	background color.RGBA

	elements map[ID]*Element
	nextID   ID
	nextZ    int

	// version increases on every mutation.
	version uint64
}

// NewModel creates an empty page with the given bounds and background.
func NewModel(bounds geometry.Size, background color.RGBA) *Model {
	return &Model{
		bounds:     bounds,
		background: background,
		elements:   make(map[ID]*Element),
	}
}

// Bounds returns the fixed page size.
func (m *Model) Bounds() geometry.Size {
	return m.bounds
}

// Background returns the current background color.
func (m *Model) Background() color.RGBA {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.background
}

// SetBackground changes the page background.
func (m *Model) SetBackground(c color.RGBA) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.background = c
	m.version++
}

// Version returns the mutation counter.
func (m *Model) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Add stores e, assigning it the next ID and, when unset, the next z-index.
// The stored element is a copy; the assigned ID is returned.
func (m *Model) Add(e *Element) ID {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	stored := e.Clone()
	stored.ID = m.nextID
	if stored.ZIndex == 0 {
		m.nextZ++
		stored.ZIndex = m.nextZ
	} else if stored.ZIndex > m.nextZ {
		m.nextZ = stored.ZIndex
	}
	m.elements[stored.ID] = stored
	m.version++
	return stored.ID
}

// Remove deletes an element.
func (m *Model) Remove(id ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.elements[id]; !ok {
		return ErrNotFound
	}
	delete(m.elements, id)
	m.version++
	return nil
}

// Update applies a patch to an element.
func (m *Model) Update(id ID, p Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.elements[id]
	if !ok {
		return ErrNotFound
	}
	p.apply(e)
	if p.ZIndex != nil && *p.ZIndex > m.nextZ {
		m.nextZ = *p.ZIndex
	}
	m.version++
	return nil
}

// Get returns a copy of an element.
func (m *Model) Get(id ID) (*Element, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.elements[id]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

// Has reports whether id is present.
func (m *Model) Has(id ID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.elements[id]
	return ok
}

// Len returns the number of elements.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.elements)
}

// List returns copies of all elements ordered back to front (z-index, then ID).
func (m *Model) List() []*Element {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked()
}

// TopZ returns the highest z-index in use.
func (m *Model) TopZ() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nextZ
}

// Snapshot returns a detached copy of the page state. Strokes are left empty;
// the ink layer owns them.
func (m *Model) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Bounds:     m.bounds,
		Background: m.background,
		Elements:   m.listLocked(),
		Version:    m.version,
	}
}

func (m *Model) listLocked() []*Element {
	out := make([]*Element, 0, len(m.elements))
	for _, e := range m.elements {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ZIndex != out[j].ZIndex {
			return out[i].ZIndex < out[j].ZIndex
		}
		return out[i].ID < out[j].ID
	})
	return out
}
