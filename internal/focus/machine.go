// Package focus tracks which element of the page is selected and whether its
// text is being edited. It owns the outside-click rule, the exclusion zone
// registry consulted by that rule, and the empty-text auto-destroy rule.
package focus

import (
	"fmt"
	"log/slog"
	"strings"

	"memento/internal/page"
	"memento/pkg/geometry"
)

// State is the focus state.
type State int

const (
	Unfocused State = iota
	Focused
	Editing
)

func (s State) String() string {
	switch s {
	case Unfocused:
		return "Unfocused"
	case Focused:
		return "Focused"
	case Editing:
		return "Editing"
	default:
		return "Unknown"
	}
}

// Status is the state plus the element it refers to (zero when Unfocused).
type Status struct {
	State State
	ID    page.ID
}

func (s Status) String() string {
	if s.State == Unfocused {
		return s.State.String()
	}
	return fmt.Sprintf("%s(%d)", s.State, s.ID)
}

// Store is the part of the element model the machine needs.
type Store interface {
	Get(id page.ID) (*page.Element, bool)
	Update(id page.ID, p page.Patch) error
	Remove(id page.ID) error
}

// Machine is the focus/selection state machine. It never terminates; it lives
// as long as the page.
type Machine struct {
	store  Store
	arena  *Arena
	zones  *Zones
	logger *slog.Logger

	status Status

	onChange  []func(prev, next Status)
	onDestroy []func(id page.ID)
}

// NewMachine creates a machine in the Unfocused state.
func NewMachine(store Store, arena *Arena, zones *Zones, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		store:  store,
		arena:  arena,
		zones:  zones,
		logger: logger.With("component", "focus"),
	}
}

// Status returns the current state.
func (m *Machine) Status() Status {
	return m.status
}

// Zones returns the shared exclusion zone registry.
func (m *Machine) Zones() *Zones {
	return m.zones
}

// Arena returns the shared snapshot arena.
func (m *Machine) Arena() *Arena {
	return m.arena
}

// OnChange registers a listener for state transitions.
func (m *Machine) OnChange(fn func(prev, next Status)) {
	m.onChange = append(m.onChange, fn)
}

// OnDestroy registers a listener called after the machine removes an element.
func (m *Machine) OnDestroy(fn func(id page.ID)) {
	m.onDestroy = append(m.onDestroy, fn)
}

// Focus moves focus to id (pointer-down on an element). Focusing the element
// that already holds focus or editing keeps the current state.
func (m *Machine) Focus(id page.ID) error {
	if m.status.ID == id && m.status.State != Unfocused {
		return nil
	}
	if _, ok := m.store.Get(id); !ok {
		return fmt.Errorf("focus %d: %w", id, page.ErrNotFound)
	}
	m.leave()
	m.transition(Status{State: Focused, ID: id})
	return nil
}

// BeginEditing enters Editing(id) once a text input surface gains
// composition focus. Visual elements stay Focused.
func (m *Machine) BeginEditing(id page.ID) error {
	e, ok := m.store.Get(id)
	if !ok {
		return fmt.Errorf("edit %d: %w", id, page.ErrNotFound)
	}
	if e.Kind() != page.KindText {
		return m.Focus(id)
	}
	if m.status.ID != id {
		m.leave()
	}
	m.transition(Status{State: Editing, ID: id})
	return nil
}

// OutsideClick applies the outside-click rule for a pointer-down at screen
// point p that hit no element. It returns false when an exclusion zone
// swallowed the click.
func (m *Machine) OutsideClick(p geometry.Point2D) bool {
	if m.zones != nil && m.zones.Contains(p) {
		return false
	}
	m.Blur()
	return true
}

// Blur leaves the current element (destroying it if it is empty text) and
// returns to Unfocused.
func (m *Machine) Blur() {
	if m.status.State == Unfocused {
		return
	}
	m.leave()
	m.transition(Status{})
}

// DestroyFocused removes the focused or editing element regardless of its
// content (deletion key). It returns the removed ID.
func (m *Machine) DestroyFocused() (page.ID, bool) {
	if m.status.State == Unfocused {
		return 0, false
	}
	id := m.status.ID
	m.transition(Status{})
	m.destroy(id)
	return id, true
}

// Forget drops focus from id without applying exit rules, for elements removed
// by another path.
func (m *Machine) Forget(id page.ID) {
	if m.status.ID == id && m.status.State != Unfocused {
		m.transition(Status{})
	}
	if m.arena != nil {
		m.arena.Deregister(id)
	}
}

// leave applies the exit rule to the element currently holding focus.
func (m *Machine) leave() {
	if m.status.State == Unfocused {
		return
	}
	id := m.status.ID
	e, ok := m.store.Get(id)
	if !ok || e.Kind() != page.KindText {
		return
	}
	content, ok := m.snapshot(e)
	if ok && strings.TrimSpace(content) == "" {
		m.logger.Debug("destroying empty text on focus loss", "id", id)
		m.transition(Status{})
		m.destroy(id)
	}
}

func (m *Machine) snapshot(e *page.Element) (string, bool) {
	if m.arena != nil {
		if s, ok := m.arena.Snapshot(e.ID); ok {
			return s, true
		}
	}
	if t := e.Text(); t != nil {
		return t.Content, true
	}
	return "", false
}

func (m *Machine) transition(next Status) {
	prev := m.status
	if prev == next {
		return
	}
	if prev.State != Unfocused && prev.ID != next.ID {
		// The element may already be gone; the flag goes with it.
		_ = m.store.Update(prev.ID, page.Patch{Focused: page.Ptr(false)})
	}
	if next.State != Unfocused {
		_ = m.store.Update(next.ID, page.Patch{Focused: page.Ptr(true)})
	}
	m.status = next
	m.logger.Debug("focus transition", "from", prev.String(), "to", next.String())
	for _, fn := range m.onChange {
		fn(prev, next)
	}
}

func (m *Machine) destroy(id page.ID) {
	if err := m.store.Remove(id); err != nil {
		m.logger.Warn("failed to remove element", "id", id, "error", err)
		return
	}
	if m.arena != nil {
		m.arena.Deregister(id)
	}
	for _, fn := range m.onDestroy {
		fn(id)
	}
}
