// Package interaction turns pointer sessions, key presses and tool changes into
// page mutations. Every geometric change goes through the constraint solver
// before it reaches the element model.
package interaction

import (
	"context"
	"errors"
	"image/color"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"

	"memento/internal/focus"
	"memento/internal/ink"
	"memento/internal/page"
	"memento/pkg/colorutil"
	"memento/pkg/geometry"
)

// ErrSessionActive is returned when a pointer-down arrives while another
// pointer session is still open.
var ErrSessionActive = errors.New("pointer session already active")

// Tool is the active toolbar tool.
type Tool int

const (
	ToolNone Tool = iota
	ToolText
	ToolDraw
	ToolSticker
	ToolBackground
)

func (t Tool) String() string {
	switch t {
	case ToolNone:
		return "none"
	case ToolText:
		return "text"
	case ToolDraw:
		return "draw"
	case ToolSticker:
		return "sticker"
	case ToolBackground:
		return "background"
	default:
		return "unknown"
	}
}

// ParseTool maps a tool name back to a Tool.
func ParseTool(s string) (Tool, bool) {
	for t := ToolNone; t <= ToolBackground; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return ToolNone, false
}

// Event identifies a change reported by the controller.
type Event int

const (
	EventElementAdded Event = iota
	EventElementRemoved
	EventElementChanged
	EventFocusChanged
	EventStrokeSealed
	EventBackgroundChanged
	EventToolChanged
	EventStyleChanged
)

// Emitter receives controller events. Events are delivered after the
// controller has released its lock, so listeners may call back into it.
type Emitter interface {
	Emit(ev Event, data interface{})
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ev Event, data interface{})

// Emit implements Emitter.
func (f EmitterFunc) Emit(ev Event, data interface{}) { f(ev, data) }

// SizeResolver reports the intrinsic pixel size behind an image reference.
type SizeResolver interface {
	Resolve(ctx context.Context, ref string) (geometry.Size, error)
}

// Measurer returns the height text needs when wrapped to width.
type Measurer interface {
	Measure(content string, fontSize, width float64) float64
}

// Config holds the tool parameters of the controller.
type Config struct {
	HandleSize     float64
	MinVisualWidth float64
	TextMinSize    geometry.Size
	TextAnchor     geometry.Point2D
	TextWidth      float64
	TextColor      color.RGBA

	FontSize     float64
	MinFontSize  float64
	MaxFontSize  float64
	FontSizeStep float64

	ImageAnchor      geometry.Point2D
	ImageDefaultSize float64
	// StickerScatter is the area a new sticker's top-left is drawn from.
	StickerScatter geometry.Rect
}

// DefaultConfig returns the stock diary editor parameters.
func DefaultConfig() Config {
	return Config{
		HandleSize:       16,
		MinVisualWidth:   50,
		TextMinSize:      geometry.NewSize(100, 60),
		TextAnchor:       geometry.NewPoint2D(50, 50),
		TextWidth:        200,
		TextColor:        colorutil.Black,
		FontSize:         16,
		MinFontSize:      10,
		MaxFontSize:      60,
		FontSizeStep:     1,
		ImageAnchor:      geometry.NewPoint2D(100, 100),
		ImageDefaultSize: 150,
		StickerScatter:   geometry.NewRect(50, 50, 400, 200),
	}
}

// Options carries the optional collaborators of a Controller.
type Options struct {
	Config   Config
	Resolver SizeResolver
	Measurer Measurer
	Emitter  Emitter
	Logger   *slog.Logger
	Rand     *rand.Rand
}

type pending struct {
	ev   Event
	data interface{}
}

// Controller owns the pointer session and applies every interactive change.
type Controller struct {
	mu sync.Mutex

	model *page.Model
	ink   *ink.Layer
	focus *focus.Machine

	cfg      Config
	resolver SizeResolver
	measurer Measurer
	emitter  Emitter
	logger   *slog.Logger
	rng      *rand.Rand

	tool      Tool
	textColor color.RGBA
	fontSize  float64

	viewport geometry.AffineTransform
	inverse  geometry.AffineTransform

	session *session
	paused  atomic.Bool

	// userHeight is the height a text element was last resized to; auto-grow
	// never shrinks below it.
	userHeight map[page.ID]float64

	queue []pending
}

// New creates a controller over model, ink layer and focus machine.
func New(model *page.Model, layer *ink.Layer, machine *focus.Machine, opts Options) *Controller {
	cfg := opts.Config
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	measurer := opts.Measurer
	if measurer == nil {
		measurer = EstimateMeasurer{}
	}

	c := &Controller{
		model:      model,
		ink:        layer,
		focus:      machine,
		cfg:        cfg,
		resolver:   opts.Resolver,
		measurer:   measurer,
		emitter:    opts.Emitter,
		logger:     logger.With("component", "interaction"),
		rng:        rng,
		textColor:  cfg.TextColor,
		fontSize:   cfg.FontSize,
		viewport:   geometry.Identity(),
		inverse:    geometry.Identity(),
		userHeight: make(map[page.ID]float64),
	}

	machine.OnChange(func(_, next focus.Status) {
		c.enqueue(EventFocusChanged, next)
	})
	machine.OnDestroy(func(id page.ID) {
		delete(c.userHeight, id)
		c.enqueue(EventElementRemoved, id)
	})
	return c
}

// Model returns the element model.
func (c *Controller) Model() *page.Model { return c.model }

// Ink returns the ink layer.
func (c *Controller) Ink() *ink.Layer { return c.ink }

// Focus returns the focus machine.
func (c *Controller) Focus() *focus.Machine { return c.focus }

// Config returns the tool parameters.
func (c *Controller) Config() Config { return c.cfg }

// Pause makes all input a no-op until Resume.
func (c *Controller) Pause() { c.paused.Store(true) }

// Resume re-enables input.
func (c *Controller) Resume() { c.paused.Store(false) }

// Paused reports whether input is suspended.
func (c *Controller) Paused() bool { return c.paused.Load() }

// Status returns the focus state.
func (c *Controller) Status() focus.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus.Status()
}

// Tool returns the active tool.
func (c *Controller) Tool() Tool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tool
}

// SetViewport sets the screen-from-page transform. A singular transform is
// rejected and the previous viewport kept.
func (c *Controller) SetViewport(xf geometry.AffineTransform) bool {
	inv, ok := xf.Inverse()
	if !ok {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport = xf
	c.inverse = inv
	return true
}

// Viewport returns the screen-from-page transform.
func (c *Controller) Viewport() geometry.AffineTransform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewport
}

// ToPage maps a screen point into page coordinates.
func (c *Controller) ToPage(p geometry.Point2D) geometry.Point2D {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inverse.Apply(p)
}

// SetTool activates a tool. Draw mode clears focus and enables the ink
// layer; the text tool adds a new text element and starts editing it.
func (c *Controller) SetTool(t Tool) {
	if c.Paused() {
		return
	}
	c.run(func() error {
		prev := c.tool
		if prev == ToolDraw && t != ToolDraw {
			c.ink.SetEnabled(false)
		}
		c.tool = t
		switch t {
		case ToolDraw:
			c.focus.Blur()
			c.ink.SetEnabled(true)
		case ToolText:
			c.addText()
		}
		if prev != t {
			c.enqueue(EventToolChanged, t)
		}
		return nil
	})
}

// SetBackground changes the page background color.
func (c *Controller) SetBackground(col color.RGBA) {
	if c.Paused() {
		return
	}
	c.run(func() error {
		c.model.SetBackground(col)
		c.enqueue(EventBackgroundChanged, col)
		return nil
	})
}

// SetPenColor picks the ink color and leaves erase mode.
func (c *Controller) SetPenColor(col color.RGBA) {
	if c.Paused() {
		return
	}
	c.ink.SetColor(col)
	c.emit(EventStyleChanged, c.ink.Style())
}

// SetPenWidth sets the ink width (clamped by the layer).
func (c *Controller) SetPenWidth(w float64) {
	if c.Paused() {
		return
	}
	c.ink.SetWidth(w)
	c.emit(EventStyleChanged, c.ink.Style())
}

// SetErase toggles erase mode.
func (c *Controller) SetErase(on bool) {
	if c.Paused() {
		return
	}
	c.ink.SetErase(on)
	c.emit(EventStyleChanged, c.ink.Style())
}

// Delete removes an element by explicit action, whatever its content.
func (c *Controller) Delete(id page.ID) error {
	if c.Paused() {
		return nil
	}
	return c.run(func() error {
		if st := c.focus.Status(); st.State != focus.Unfocused && st.ID == id {
			c.focus.DestroyFocused()
			return nil
		}
		if err := c.model.Remove(id); err != nil {
			return err
		}
		c.focus.Forget(id)
		delete(c.userHeight, id)
		c.enqueue(EventElementRemoved, id)
		return nil
	})
}

// run executes fn under the controller lock and then delivers the events it
// queued.
func (c *Controller) run(fn func() error) error {
	c.mu.Lock()
	err := fn()
	events := c.queue
	c.queue = nil
	c.mu.Unlock()

	if c.emitter != nil {
		for _, p := range events {
			c.emitter.Emit(p.ev, p.data)
		}
	}
	return err
}

func (c *Controller) enqueue(ev Event, data interface{}) {
	c.queue = append(c.queue, pending{ev: ev, data: data})
}

func (c *Controller) emit(ev Event, data interface{}) {
	if c.emitter != nil {
		c.emitter.Emit(ev, data)
	}
}
