package canvas

import (
	"image"
	"image/color"
	"image/draw"

	"fyne.io/fyne/v2"

	"memento/pkg/geometry"
)

// RegisterOverlay marks a floating widget drawn over the page, such as the
// pen style popup, as an exclusion zone: presses on it never count as
// outside clicks and never start a stroke.
func (pc *PageCanvas) RegisterOverlay(name string, obj fyne.CanvasObject) {
	if pc.overlays == nil {
		pc.overlays = make(map[string]fyne.CanvasObject)
	}
	pc.overlays[name] = obj
	pc.syncOverlays()
}

// RemoveOverlay drops a registered overlay.
func (pc *PageCanvas) RemoveOverlay(name string) {
	delete(pc.overlays, name)
	pc.state.Controller().Focus().Zones().Deregister(name)
}

// syncOverlays re-registers every visible overlay at its current position,
// relative to the canvas.
func (pc *PageCanvas) syncOverlays() {
	zones := pc.state.Controller().Focus().Zones()
	drv := fyne.CurrentApp().Driver()
	origin := drv.AbsolutePositionForObject(pc)
	for name, obj := range pc.overlays {
		if !obj.Visible() {
			zones.Deregister(name)
			continue
		}
		pos := drv.AbsolutePositionForObject(obj).Subtract(origin)
		size := obj.Size()
		zones.Register(name, geometry.NewRect(
			float64(pos.X), float64(pos.Y), float64(size.Width), float64(size.Height)))
	}
}

func fillRect(img *image.RGBA, r image.Rectangle, col color.RGBA) {
	draw.Draw(img, r, image.NewUniform(col), image.Point{}, draw.Src)
}
