package interaction

import (
	"fmt"

	"memento/internal/constraint"
	"memento/internal/focus"
	"memento/internal/page"
	"memento/pkg/geometry"
)

type sessionKind int

const (
	sessionIdle sessionKind = iota
	sessionDrag
	sessionResize
	sessionDraw
)

func (k sessionKind) String() string {
	switch k {
	case sessionDrag:
		return "drag"
	case sessionResize:
		return "resize"
	case sessionDraw:
		return "draw"
	default:
		return "idle"
	}
}

// session is one pointer-down → move* → up sequence.
type session struct {
	kind  sessionKind
	id    page.ID
	start geometry.Point2D // page coordinates of the pointer-down

	originPos  geometry.Point2D
	originSize geometry.Size
}

// Hit classifies what lies under a page point.
type Hit struct {
	ID     page.ID
	Handle bool
}

// HitTest returns the topmost element under p (page coordinates) and whether
// p is on its resize handle.
func (c *Controller) HitTest(p geometry.Point2D) (Hit, bool) {
	return hitTest(c.model.List(), p, c.cfg.HandleSize)
}

func hitTest(elements []*page.Element, p geometry.Point2D, handleSize float64) (Hit, bool) {
	for i := len(elements) - 1; i >= 0; i-- {
		e := elements[i]
		if !e.Rect().Contains(p) {
			continue
		}
		return Hit{ID: e.ID, Handle: HandleRect(e, handleSize).Contains(p)}, true
	}
	return Hit{}, false
}

// HandleRect is the square resize handle in the element's bottom-right corner.
func HandleRect(e *page.Element, size float64) geometry.Rect {
	s := size
	if s > e.Size.Width {
		s = e.Size.Width
	}
	if s > e.Size.Height {
		s = e.Size.Height
	}
	br := e.Rect().BottomRight()
	return geometry.NewRect(br.X-s, br.Y-s, s, s)
}

// SessionActive reports whether a pointer session is open.
func (c *Controller) SessionActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// PointerDown starts a pointer session at screen point sp.
func (c *Controller) PointerDown(sp geometry.Point2D) error {
	if c.Paused() {
		return nil
	}
	return c.run(func() error {
		if c.session != nil {
			return fmt.Errorf("pointer down: %w", ErrSessionActive)
		}
		p := c.inverse.Apply(sp)

		if c.tool == ToolDraw {
			if c.focus.Zones() != nil && c.focus.Zones().Contains(sp) {
				return nil
			}
			if c.ink.Begin() {
				c.session = &session{kind: sessionDraw, start: p}
			}
			return nil
		}

		hit, ok := c.HitTest(p)
		if !ok {
			if !c.focus.OutsideClick(sp) {
				c.logger.Debug("pointer down inside exclusion zone", "x", sp.X, "y", sp.Y)
			}
			return nil
		}

		e, found := c.model.Get(hit.ID)
		if !found {
			return nil
		}
		if err := c.focus.Focus(hit.ID); err != nil {
			return err
		}

		s := &session{
			kind:       sessionDrag,
			id:         hit.ID,
			start:      p,
			originPos:  e.Position,
			originSize: e.Size,
		}
		if hit.Handle {
			s.kind = sessionResize
		}
		c.session = s
		c.logger.Debug("pointer session started", "kind", s.kind.String(), "id", s.id)
		return nil
	})
}

// PointerMove feeds a move to the open session. Moves with no session open
// are ignored.
func (c *Controller) PointerMove(sp geometry.Point2D) {
	if c.Paused() {
		return
	}
	c.run(func() error {
		if c.session == nil {
			return nil
		}
		c.apply(c.inverse.Apply(sp))
		return nil
	})
}

// PointerUp commits the last geometry at sp and closes the session. There is
// no revert: a release outside the page keeps the clamped result. While
// paused the session is closed without committing anything.
func (c *Controller) PointerUp(sp geometry.Point2D) {
	if c.Paused() {
		c.dropSession()
		return
	}
	c.run(func() error {
		s := c.session
		if s == nil {
			return nil
		}
		if s.kind != sessionDraw {
			c.apply(c.inverse.Apply(sp))
		}
		c.session = nil

		switch s.kind {
		case sessionDraw:
			if stroke, ok := c.ink.Seal(); ok {
				c.enqueue(EventStrokeSealed, stroke)
			}
		case sessionResize:
			if e, ok := c.model.Get(s.id); ok && e.Kind() == page.KindText {
				c.userHeight[s.id] = e.Size.Height
			}
		}
		return nil
	})
}

// CancelSession drops an open session, keeping what was already committed.
func (c *Controller) CancelSession() {
	if c.Paused() {
		c.dropSession()
		return
	}
	c.run(func() error {
		if c.session != nil && c.session.kind == sessionDraw {
			if stroke, ok := c.ink.Seal(); ok {
				c.enqueue(EventStrokeSealed, stroke)
			}
		}
		c.session = nil
		return nil
	})
}

// dropSession closes the open session and discards an open stroke, leaving
// the page untouched.
func (c *Controller) dropSession() {
	c.run(func() error {
		if c.session == nil {
			return nil
		}
		if c.session.kind == sessionDraw {
			c.ink.Discard()
		}
		c.logger.Debug("pointer session dropped while paused", "kind", c.session.kind.String())
		c.session = nil
		return nil
	})
}

func (c *Controller) apply(p geometry.Point2D) {
	s := c.session
	switch s.kind {
	case sessionDraw:
		c.ink.Append(p)
	case sessionDrag:
		e, ok := c.model.Get(s.id)
		if !ok {
			c.session = nil
			return
		}
		pos := constraint.ClampPosition(s.originPos.Add(p.Sub(s.start)), e.Size, c.model.Bounds())
		if pos == e.Position {
			return
		}
		c.commit(s.id, page.Patch{Position: &pos})
	case sessionResize:
		e, ok := c.model.Get(s.id)
		if !ok {
			c.session = nil
			return
		}
		req := constraint.Request{
			Current:  s.originSize,
			Delta:    p.Sub(s.start),
			Position: e.Position,
			Bounds:   c.model.Bounds(),
		}
		if v := e.Visual(); v != nil {
			req.LockAspect = true
			req.AspectRatio = v.AspectRatio
			req.MinSize = geometry.NewSize(c.cfg.MinVisualWidth, c.cfg.MinVisualWidth/v.AspectRatio)
		} else {
			req.MinSize = c.cfg.TextMinSize
		}
		size := constraint.Resize(req)
		if size == e.Size {
			return
		}
		c.commit(s.id, page.Patch{Size: &size})
	}
}

func (c *Controller) commit(id page.ID, p page.Patch) {
	if err := c.model.Update(id, p); err != nil {
		c.logger.Warn("failed to commit element change", "id", id, "error", err)
		return
	}
	c.enqueue(EventElementChanged, id)
}

// BeginEditing enters text editing on id once the input surface has keyboard
// focus.
func (c *Controller) BeginEditing(id page.ID) error {
	if c.Paused() {
		return nil
	}
	return c.run(func() error {
		return c.focus.BeginEditing(id)
	})
}

// Blur leaves the focused element, applying the empty-text rule.
func (c *Controller) Blur() {
	if c.Paused() {
		return
	}
	c.run(func() error {
		c.focus.Blur()
		return nil
	})
}

// focusedText returns the focused or editing text element.
func (c *Controller) focusedText() (*page.Element, bool) {
	st := c.focus.Status()
	if st.State == focus.Unfocused {
		return nil, false
	}
	e, ok := c.model.Get(st.ID)
	if !ok || e.Kind() != page.KindText {
		return nil, false
	}
	return e, true
}
