package interaction

import (
	"image/color"
	"math"
	"strings"
	"unicode/utf8"

	"memento/internal/constraint"
	"memento/internal/focus"
	"memento/internal/page"
	"memento/pkg/geometry"
)

// LineHeight is the line spacing as a multiple of the font size.
const LineHeight = 1.25

// EstimateMeasurer sizes text from average glyph metrics. It is used when no
// font-backed measurer is wired in.
type EstimateMeasurer struct{}

// Measure implements Measurer.
func (EstimateMeasurer) Measure(content string, fontSize, width float64) float64 {
	perLine := 1
	if adv := fontSize * 0.55; adv > 0 && width > adv {
		perLine = int(width / adv)
	}
	lines := 0
	for _, para := range strings.Split(content, "\n") {
		n := utf8.RuneCountInString(para)
		lines += max(1, (n+perLine-1)/perLine)
	}
	return float64(lines) * fontSize * LineHeight
}

// Key is a key the controller reacts to.
type Key int

const (
	KeyDelete Key = iota
	KeyBackspace
	KeyEnter
	KeyEscape
)

// KeyDown handles a key press. Delete destroys the focused element whatever
// its content. Backspace edits text, or destroys a focused image or sticker.
func (c *Controller) KeyDown(k Key) {
	if c.Paused() {
		return
	}
	c.run(func() error {
		st := c.focus.Status()
		switch k {
		case KeyDelete:
			c.focus.DestroyFocused()
		case KeyBackspace:
			if st.State == focus.Unfocused {
				return nil
			}
			e, ok := c.model.Get(st.ID)
			if !ok {
				return nil
			}
			if e.Kind() != page.KindText {
				c.focus.DestroyFocused()
				return nil
			}
			content := e.Text().Content
			if content == "" {
				return nil
			}
			_, size := utf8.DecodeLastRuneInString(content)
			c.editText(e, content[:len(content)-size])
		case KeyEnter:
			if e, ok := c.focusedText(); ok {
				c.editText(e, e.Text().Content+"\n")
			}
		case KeyEscape:
			c.focus.Blur()
		default:
			c.logger.Debug("ignoring key", "key", int(k))
		}
		return nil
	})
}

// TypeText appends s to the focused text element.
func (c *Controller) TypeText(s string) {
	if c.Paused() || s == "" {
		return
	}
	c.run(func() error {
		if e, ok := c.focusedText(); ok {
			c.editText(e, e.Text().Content+s)
		}
		return nil
	})
}

// SetText replaces the content of the focused text element.
func (c *Controller) SetText(s string) {
	if c.Paused() {
		return
	}
	c.run(func() error {
		if e, ok := c.focusedText(); ok {
			c.editText(e, s)
		}
		return nil
	})
}

// SetTextColor sets the color for new text and recolors the focused text.
func (c *Controller) SetTextColor(col color.RGBA) {
	if c.Paused() {
		return
	}
	c.run(func() error {
		c.textColor = col
		if e, ok := c.focusedText(); ok {
			c.commit(e.ID, page.Patch{Color: &col})
		}
		c.enqueue(EventStyleChanged, col)
		return nil
	})
}

// IncreaseFontSize steps the font size up, bounded by the maximum.
func (c *Controller) IncreaseFontSize() {
	c.stepFontSize(1)
}

// DecreaseFontSize steps the font size down, bounded by the minimum.
func (c *Controller) DecreaseFontSize() {
	c.stepFontSize(-1)
}

// FontSize returns the font size used for new text.
func (c *Controller) FontSize() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fontSize
}

// TextColor returns the color used for new text.
func (c *Controller) TextColor() color.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.textColor
}

func (c *Controller) stepFontSize(dir float64) {
	if c.Paused() {
		return
	}
	c.run(func() error {
		base := c.fontSize
		e, ok := c.focusedText()
		if ok {
			base = e.Text().FontSize
		}
		next := geometry.Clamp(base+dir*c.cfg.FontSizeStep, c.cfg.MinFontSize, c.cfg.MaxFontSize)
		c.fontSize = next
		if ok && next != base {
			if err := c.model.Update(e.ID, page.Patch{FontSize: &next}); err == nil {
				e.Text().FontSize = next
				c.grow(e)
				c.enqueue(EventElementChanged, e.ID)
			}
		}
		c.enqueue(EventStyleChanged, next)
		return nil
	})
}

// AddText creates a text element at the default anchor and starts editing it.
func (c *Controller) AddText() page.ID {
	if c.Paused() {
		return 0
	}
	var id page.ID
	c.run(func() error {
		id = c.addText()
		return nil
	})
	return id
}

func (c *Controller) addText() page.ID {
	bounds := c.model.Bounds()
	height := c.measurer.Measure("", c.fontSize, c.cfg.TextWidth)
	size := geometry.NewSize(math.Min(c.cfg.TextWidth, bounds.Width), math.Min(height, bounds.Height))
	pos := constraint.ClampPosition(c.cfg.TextAnchor, size, bounds)

	id := c.model.Add(page.NewText(pos, size, c.textColor, c.fontSize))
	c.registerSnapshot(id)
	c.enqueue(EventElementAdded, id)
	if err := c.focus.BeginEditing(id); err != nil {
		c.logger.Warn("failed to edit new text", "id", id, "error", err)
	}
	return id
}

// editText commits new content, entering Editing if only Focused, and
// re-measures the element height.
func (c *Controller) editText(e *page.Element, content string) {
	if st := c.focus.Status(); st.State != focus.Editing || st.ID != e.ID {
		if err := c.focus.BeginEditing(e.ID); err != nil {
			return
		}
	}
	if err := c.model.Update(e.ID, page.Patch{Content: &content}); err != nil {
		return
	}
	e.Text().Content = content
	c.grow(e)
	c.enqueue(EventElementChanged, e.ID)
}

// grow fits the element height to its text. The height never drops below the
// last user-resized height and the element stays inside the page.
func (c *Controller) grow(e *page.Element) {
	t := e.Text()
	bounds := c.model.Bounds()
	h := c.measurer.Measure(t.Content, t.FontSize, e.Size.Width)
	if user, ok := c.userHeight[e.ID]; ok {
		h = math.Max(h, user)
	}
	h = math.Min(h, bounds.Height)
	if h == e.Size.Height {
		return
	}
	size := geometry.NewSize(e.Size.Width, h)
	pos := constraint.ClampPosition(e.Position, size, bounds)
	if err := c.model.Update(e.ID, page.Patch{Size: &size, Position: &pos}); err != nil {
		c.logger.Warn("failed to grow text", "id", e.ID, "error", err)
	}
}
