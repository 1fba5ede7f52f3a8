// Package canvas provides the interactive page widget.
package canvas

import (
	"context"
	"image"
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"memento/internal/app"
	"memento/internal/interaction"
	"memento/pkg/geometry"
)

const (
	minZoom  = 0.25
	maxZoom  = 4.0
	zoomStep = 1.25
)

// PageCanvas displays the page and feeds pointer and key input to the
// controller. Screen coordinates are widget-relative; the viewport maps page
// units to them by the zoom factor.
type PageCanvas struct {
	widget.BaseWidget

	state  *app.State
	logger *slog.Logger

	raster *fynecanvas.Raster
	zoom   float64

	// pressed is true between MouseDown and MouseUp.
	pressed bool

	// overlays are floating widgets registered as exclusion zones.
	overlays map[string]fyne.CanvasObject

	// Last rendered output
	lastOutput *image.RGBA

	onZoomChange func(zoom float64)
	onError      func(err error)
}

var (
	_ fyne.Widget       = (*PageCanvas)(nil)
	_ fyne.Focusable    = (*PageCanvas)(nil)
	_ fyne.Draggable    = (*PageCanvas)(nil)
	_ fyne.Scrollable   = (*PageCanvas)(nil)
	_ desktop.Mouseable = (*PageCanvas)(nil)
)

// NewPageCanvas creates a canvas over the state's current page.
func NewPageCanvas(state *app.State) *PageCanvas {
	pc := &PageCanvas{
		state:  state,
		logger: state.Logger().With("component", "canvas"),
		zoom:   1.0,
	}

	pc.raster = fynecanvas.NewRaster(pc.draw)
	pc.raster.ScaleMode = fynecanvas.ImageScalePixels

	for _, ev := range []app.EventType{
		app.EventElementAdded, app.EventElementRemoved, app.EventElementChanged,
		app.EventFocusChanged, app.EventStrokeSealed, app.EventBackgroundChanged,
		app.EventToolChanged,
	} {
		state.On(ev, func(interface{}) { pc.Refresh() })
	}
	// A new scene brings a new controller; carry the viewport over.
	state.On(app.EventSceneLoaded, func(interface{}) {
		pc.applyViewport()
		pc.syncOverlays()
		pc.Refresh()
	})

	pc.ExtendBaseWidget(pc)
	pc.applyViewport()
	return pc
}

// OnZoomChange sets a callback for zoom changes.
func (pc *PageCanvas) OnZoomChange(callback func(zoom float64)) {
	pc.onZoomChange = callback
}

// OnError sets a callback for input errors, such as a second pointer press
// while a session is open.
func (pc *PageCanvas) OnError(callback func(err error)) {
	pc.onError = callback
}

// SetZoom sets the zoom level.
func (pc *PageCanvas) SetZoom(zoom float64) {
	zoom = geometry.Clamp(zoom, minZoom, maxZoom)
	if zoom == pc.zoom {
		return
	}
	pc.zoom = zoom
	pc.applyViewport()
	if pc.onZoomChange != nil {
		pc.onZoomChange(zoom)
	}
	pc.Refresh()
}

// GetZoom returns the current zoom level.
func (pc *PageCanvas) GetZoom() float64 {
	return pc.zoom
}

// ZoomIn increases the zoom level.
func (pc *PageCanvas) ZoomIn() {
	pc.SetZoom(pc.zoom * zoomStep)
}

// ZoomOut decreases the zoom level.
func (pc *PageCanvas) ZoomOut() {
	pc.SetZoom(pc.zoom / zoomStep)
}

// FitToWindow adjusts zoom so the whole page is visible in size.
func (pc *PageCanvas) FitToWindow(size fyne.Size) {
	bounds := pc.state.Model().Bounds()
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	zoomX := float64(size.Width) / bounds.Width
	zoomY := float64(size.Height) / bounds.Height
	zoom := zoomX
	if zoomY < zoomX {
		zoom = zoomY
	}
	pc.SetZoom(zoom * 0.95) // Leave a small margin
}

// GetRenderedOutput returns the last rendered frame.
func (pc *PageCanvas) GetRenderedOutput() *image.RGBA {
	return pc.lastOutput
}

func (pc *PageCanvas) applyViewport() {
	pc.state.Controller().SetViewport(geometry.Scale(pc.zoom, pc.zoom))
}

// MinSize is the page at the current zoom.
func (pc *PageCanvas) MinSize() fyne.Size {
	b := pc.state.Model().Bounds()
	return fyne.NewSize(float32(b.Width*pc.zoom), float32(b.Height*pc.zoom))
}

// CreateRenderer implements fyne.Widget.
func (pc *PageCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(pc.raster)
}

// draw renders a preview sized to the raster's pixel dimensions.
func (pc *PageCanvas) draw(w, h int) image.Image {
	bounds := pc.state.Model().Bounds()
	if w <= 0 || h <= 0 || bounds.Width <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	scale := float64(w) / bounds.Width
	img, err := pc.state.Composer().Preview(context.Background(), scale)
	if err != nil {
		pc.logger.Warn("preview failed", "error", err)
		out := image.NewRGBA(image.Rect(0, 0, w, h))
		fillRect(out, out.Bounds(), color.RGBA{R: 0xff, G: 0xee, B: 0xee, A: 0xff})
		return out
	}
	pc.lastOutput = img
	return img
}

func (pc *PageCanvas) point(p fyne.Position) geometry.Point2D {
	return geometry.NewPoint2D(float64(p.X), float64(p.Y))
}

func (pc *PageCanvas) report(err error) {
	if err == nil {
		return
	}
	pc.logger.Debug("pointer input rejected", "error", err)
	if pc.onError != nil {
		pc.onError(err)
	}
}

// MouseDown starts a pointer session and takes keyboard focus.
func (pc *PageCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	if c := fyne.CurrentApp().Driver().CanvasForObject(pc); c != nil {
		c.Focus(pc)
	}
	pc.pressed = true
	pc.syncOverlays()
	pc.report(pc.state.Controller().PointerDown(pc.point(ev.Position)))
}

// MouseUp closes the pointer session.
func (pc *PageCanvas) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || !pc.pressed {
		return
	}
	pc.pressed = false
	pc.state.Controller().PointerUp(pc.point(ev.Position))
}

// Dragged feeds pointer moves while the button is held.
func (pc *PageCanvas) Dragged(ev *fyne.DragEvent) {
	if !pc.pressed {
		return
	}
	pc.state.Controller().PointerMove(pc.point(ev.Position))
	pc.Refresh()
}

// DragEnd is handled by MouseUp.
func (pc *PageCanvas) DragEnd() {}

// Scrolled zooms with the mouse wheel.
func (pc *PageCanvas) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		pc.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		pc.ZoomOut()
	}
}

// FocusGained implements fyne.Focusable.
func (pc *PageCanvas) FocusGained() {}

// FocusLost implements fyne.Focusable.
func (pc *PageCanvas) FocusLost() {}

// TypedRune types into the text being edited.
func (pc *PageCanvas) TypedRune(r rune) {
	pc.state.Controller().TypeText(string(r))
}

// TypedKey maps editing keys onto the controller.
func (pc *PageCanvas) TypedKey(ev *fyne.KeyEvent) {
	var k interaction.Key
	switch ev.Name {
	case fyne.KeyDelete:
		k = interaction.KeyDelete
	case fyne.KeyBackspace:
		k = interaction.KeyBackspace
	case fyne.KeyReturn, fyne.KeyEnter:
		k = interaction.KeyEnter
	case fyne.KeyEscape:
		k = interaction.KeyEscape
	default:
		return
	}
	pc.state.Controller().KeyDown(k)
}
