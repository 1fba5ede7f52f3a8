package focus

import (
	"sort"
	"sync"

	"memento/internal/page"
	"memento/pkg/geometry"
)

// Zones is the registry of exclusion zones: screen regions (open panels,
// trays, pickers) where a pointer-down does not count as an outside click.
type Zones struct {
	mu    sync.RWMutex
	zones map[string]geometry.Rect
}

// NewZones creates an empty registry.
func NewZones() *Zones {
	return &Zones{zones: make(map[string]geometry.Rect)}
}

// Register adds or replaces a named zone.
func (z *Zones) Register(name string, r geometry.Rect) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.zones[name] = r
}

// Deregister removes a named zone. Unknown names are ignored.
func (z *Zones) Deregister(name string) {
	z.mu.Lock()
	defer z.mu.Unlock()
	delete(z.zones, name)
}

// Contains reports whether p lies in any registered zone.
func (z *Zones) Contains(p geometry.Point2D) bool {
	z.mu.RLock()
	defer z.mu.RUnlock()
	for _, r := range z.zones {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

// Names returns the registered zone names, sorted.
func (z *Zones) Names() []string {
	z.mu.RLock()
	defer z.mu.RUnlock()
	names := make([]string, 0, len(z.zones))
	for n := range z.zones {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SnapshotFunc returns the current, possibly uncommitted, text of an element.
type SnapshotFunc func() string

// Arena maps element IDs to snapshot accessors so the state machine can read
// what an input surface holds without reaching into it.
type Arena struct {
	mu      sync.RWMutex
	entries map[page.ID]SnapshotFunc
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{entries: make(map[page.ID]SnapshotFunc)}
}

// Register installs the accessor for id, replacing any previous one.
func (a *Arena) Register(id page.ID, fn SnapshotFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries[id] = fn
}

// Deregister drops the accessor for id.
func (a *Arena) Deregister(id page.ID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.entries, id)
}

// Snapshot calls the accessor for id.
func (a *Arena) Snapshot(id page.ID) (string, bool) {
	a.mu.RLock()
	fn, ok := a.entries[id]
	a.mu.RUnlock()
	if !ok {
		return "", false
	}
	return fn(), true
}
