// Package panels provides UI panels for the application.
package panels

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"memento/internal/app"
	"memento/internal/ink"
	"memento/internal/interaction"
	"memento/pkg/colorutil"
	"memento/ui/prefs"
)

// SidePanel provides the main side panel: the tool selector above tabbed
// style sections.
type SidePanel struct {
	state  *app.State
	prefs  *prefs.Prefs
	window fyne.Window

	tools     *widget.RadioGroup
	syncing   bool
	container fyne.CanvasObject

	// Tab content
	penPanel     *PenPanel
	textPanel    *TextPanel
	pagePanel    *PagePanel
	stickerPanel *StickerPanel
}

var toolNames = []string{"none", "text", "draw", "sticker", "background"}

// NewSidePanel creates a new side panel.
func NewSidePanel(state *app.State, p *prefs.Prefs, tray *app.TrayWatcher) *SidePanel {
	sp := &SidePanel{state: state, prefs: p}

	sp.tools = widget.NewRadioGroup(toolNames, func(name string) {
		if sp.syncing {
			return
		}
		if t, ok := interaction.ParseTool(name); ok {
			state.Controller().SetTool(t)
		}
	})
	sp.tools.Horizontal = true
	sp.tools.Required = true
	sp.tools.Selected = interaction.ToolNone.String()

	sp.penPanel = NewPenPanel(state, p)
	sp.textPanel = NewTextPanel(state, p)
	sp.pagePanel = NewPagePanel(state)
	sp.stickerPanel = NewStickerPanel(state, tray)

	tabs := container.NewAppTabs(
		container.NewTabItem("Pen", sp.penPanel.Container()),
		container.NewTabItem("Text", sp.textPanel.Container()),
		container.NewTabItem("Page", sp.pagePanel.Container()),
		container.NewTabItem("Stickers", sp.stickerPanel.Container()),
	)
	sp.container = container.NewBorder(
		container.NewVBox(widget.NewLabel("Tool"), sp.tools),
		nil, nil, nil,
		tabs,
	)

	state.On(app.EventToolChanged, func(data interface{}) {
		if t, ok := data.(interaction.Tool); ok {
			sp.syncTool(t)
		}
	})
	state.On(app.EventSceneLoaded, func(interface{}) {
		sp.syncTool(state.Controller().Tool())
		p.Restore(state.Controller())
	})
	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window) {
	sp.window = w
	sp.stickerPanel.window = w
}

func (sp *SidePanel) syncTool(t interaction.Tool) {
	sp.syncing = true
	sp.tools.SetSelected(t.String())
	sp.syncing = false
}

// swatch is a tappable color square.
type swatch struct {
	widget.BaseWidget
	rect  *fynecanvas.Rectangle
	onTap func()
}

func newSwatch(hex string, onTap func()) *swatch {
	rect := fynecanvas.NewRectangle(colorutil.MustParseHex(hex))
	rect.StrokeColor = colorutil.OutlineColor
	rect.StrokeWidth = 1
	s := &swatch{rect: rect, onTap: onTap}
	s.ExtendBaseWidget(s)
	return s
}

func (s *swatch) Tapped(*fyne.PointEvent) {
	if s.onTap != nil {
		s.onTap()
	}
}

func (s *swatch) MinSize() fyne.Size {
	return fyne.NewSize(28, 28)
}

func (s *swatch) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.rect)
}

func swatchGrid(palette []string, pick func(hex string)) fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, 0, len(palette))
	for _, hex := range palette {
		hex := hex
		objs = append(objs, newSwatch(hex, func() { pick(hex) }))
	}
	return container.NewGridWithColumns(5, objs...)
}

// PenPanel selects ink color, width and erase mode.
type PenPanel struct {
	state     *app.State
	container fyne.CanvasObject
	width     *widget.Slider
	widthText *widget.Label
	erase     *widget.Check
}

// NewPenPanel creates the pen panel.
func NewPenPanel(state *app.State, p *prefs.Prefs) *PenPanel {
	pp := &PenPanel{state: state}
	cfg := state.Config().Tools

	pp.widthText = widget.NewLabel("")
	pp.width = widget.NewSlider(cfg.LineWidthMin, cfg.LineWidthMax)
	pp.width.Step = 1
	pp.width.OnChanged = func(v float64) {
		state.Controller().SetPenWidth(v)
	}
	pp.erase = widget.NewCheck("Eraser", func(on bool) {
		state.Controller().SetErase(on)
	})
	colors := swatchGrid(colorutil.PenColors, func(hex string) {
		state.Controller().SetPenColor(colorutil.MustParseHex(hex))
	})

	pp.container = container.NewVBox(
		widget.NewLabel("Color"),
		colors,
		container.NewBorder(nil, nil, widget.NewLabel("Width"), pp.widthText, pp.width),
		pp.erase,
	)

	state.On(app.EventStyleChanged, func(data interface{}) {
		if style, ok := data.(ink.Style); ok {
			pp.sync(style)
			p.Capture(state.Controller())
		}
	})
	pp.sync(state.Controller().Ink().Style())
	return pp
}

// Container returns the panel container.
func (pp *PenPanel) Container() fyne.CanvasObject {
	return pp.container
}

func (pp *PenPanel) sync(style ink.Style) {
	pp.widthText.SetText(fmt.Sprintf("%.0f", style.Width))
	if pp.width.Value != style.Width {
		pp.width.SetValue(style.Width)
	}
	if pp.erase.Checked != style.Erase {
		pp.erase.SetChecked(style.Erase)
	}
}

// TextPanel selects the text color and steps the font size.
type TextPanel struct {
	state     *app.State
	container fyne.CanvasObject
	size      *widget.Label
}

// NewTextPanel creates the text panel.
func NewTextPanel(state *app.State, p *prefs.Prefs) *TextPanel {
	tp := &TextPanel{state: state}
	tp.size = widget.NewLabel("")

	colors := swatchGrid(colorutil.TextColors, func(hex string) {
		state.Controller().SetTextColor(colorutil.MustParseHex(hex))
	})
	smaller := widget.NewButton("A-", func() { state.Controller().DecreaseFontSize() })
	larger := widget.NewButton("A+", func() { state.Controller().IncreaseFontSize() })
	add := widget.NewButton("Add Text", func() { state.Controller().AddText() })

	tp.container = container.NewVBox(
		widget.NewLabel("Color"),
		colors,
		container.NewHBox(widget.NewLabel("Size"), smaller, tp.size, larger),
		add,
	)

	state.On(app.EventStyleChanged, func(interface{}) {
		tp.sync()
		p.Capture(state.Controller())
	})
	tp.sync()
	return tp
}

// Container returns the panel container.
func (tp *TextPanel) Container() fyne.CanvasObject {
	return tp.container
}

func (tp *TextPanel) sync() {
	tp.size.SetText(fmt.Sprintf("%.0f", tp.state.Controller().FontSize()))
}

// PagePanel picks the page background.
type PagePanel struct {
	container fyne.CanvasObject
}

// NewPagePanel creates the page panel.
func NewPagePanel(state *app.State) *PagePanel {
	colors := swatchGrid(colorutil.BackgroundColors, func(hex string) {
		state.Controller().SetBackground(colorutil.MustParseHex(hex))
	})
	return &PagePanel{container: container.NewVBox(widget.NewLabel("Background"), colors)}
}

// Container returns the panel container.
func (pp *PagePanel) Container() fyne.CanvasObject {
	return pp.container
}

// StickerPanel lists the sticker directory and places the chosen entry.
type StickerPanel struct {
	state     *app.State
	window    fyne.Window
	refs      []string
	selected  int
	list      *widget.List
	container fyne.CanvasObject
}

// NewStickerPanel creates the sticker tray over the watcher's listing.
func NewStickerPanel(state *app.State, tray *app.TrayWatcher) *StickerPanel {
	sp := &StickerPanel{state: state, selected: -1}
	if tray != nil {
		sp.refs = tray.Current()
		tray.OnChange(func(refs []string) {
			sp.refs = refs
			sp.selected = -1
			sp.list.UnselectAll()
			sp.list.Refresh()
		})
	}

	sp.list = widget.NewList(
		func() int { return len(sp.refs) },
		func() fyne.CanvasObject { return widget.NewLabel("sticker.png") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(sp.refs[id])
		},
	)
	sp.list.OnSelected = func(id widget.ListItemID) { sp.selected = id }

	sticker := widget.NewButton("Place Sticker", func() { sp.place(true) })
	image := widget.NewButton("Place as Image", func() { sp.place(false) })

	sp.container = container.NewBorder(nil, container.NewHBox(sticker, image), nil, nil, sp.list)
	return sp
}

// Container returns the panel container.
func (sp *StickerPanel) Container() fyne.CanvasObject {
	return sp.container
}

func (sp *StickerPanel) place(sticker bool) {
	if sp.selected < 0 || sp.selected >= len(sp.refs) {
		return
	}
	ref := sp.refs[sp.selected]
	c := sp.state.Controller()
	var err error
	if sticker {
		_, err = c.PlaceSticker(context.Background(), ref)
	} else {
		_, err = c.PlaceImage(context.Background(), ref)
	}
	if err != nil && sp.window != nil {
		dialog.ShowError(err, sp.window)
	}
}
