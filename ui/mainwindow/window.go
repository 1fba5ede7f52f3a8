// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"memento/internal/app"
	"memento/internal/compose"
	"memento/internal/interaction"
	"memento/internal/version"
	"memento/ui/canvas"
	"memento/ui/panels"
	"memento/ui/prefs"
)

const appTitle = "Memento"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	prefs     *prefs.Prefs
	canvas    *canvas.PageCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
	scroll    *container.Scroll
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs, tray *app.TrayWatcher) *MainWindow {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
	}

	mw.setupUI(tray)
	mw.setupMenus()
	mw.setupEventHandlers()

	p.Restore(state.Controller())
	mw.canvas.SetZoom(p.FloatWithFallback(prefs.KeyZoom, 1.0))
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI(tray *app.TrayWatcher) {
	mw.canvas = canvas.NewPageCanvas(mw.state)
	mw.canvas.OnZoomChange(func(zoom float64) {
		mw.prefs.SetFloat(prefs.KeyZoom, zoom)
		mw.updateStatus(fmt.Sprintf("Zoom %.0f%%", zoom*100))
	})
	mw.canvas.OnError(func(err error) {
		mw.updateStatus(err.Error())
	})

	mw.sidePanel = panels.NewSidePanel(mw.state, mw.prefs, tray)
	mw.sidePanel.SetWindow(mw.Window)

	mw.statusBar = widget.NewLabel("Ready")

	toolbar := mw.createToolbar()

	mw.scroll = container.NewScroll(container.NewCenter(mw.canvas))

	// The quick bar floats over the page; presses on it are not page clicks.
	quick := mw.createQuickBar()
	mw.canvas.RegisterOverlay("quickbar", quick)
	page := container.NewStack(
		mw.scroll,
		container.NewVBox(layout.NewSpacer(), container.NewHBox(layout.NewSpacer(), quick)),
	)

	canvasArea := container.NewBorder(
		toolbar, // top
		nil,     // bottom
		nil,     // left
		nil,     // right
		page,    // center
	)

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.22)

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)

	mw.SetContent(content)
	mw.Resize(fyne.NewSize(1400, 800))
}

// createToolbar creates the toolbar with zoom and export controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	return container.NewHBox(
		widget.NewLabel("Zoom:"),
		widget.NewButton("-", mw.canvas.ZoomOut),
		widget.NewButton("+", mw.canvas.ZoomIn),
		widget.NewButton("Fit", mw.onFitToWindow),
		widget.NewButton("1:1", mw.onActualSize),
		widget.NewSeparator(),
		widget.NewButton("Export PNG", mw.onExportPNG),
		widget.NewButton("Upload", mw.onUpload),
	)
}

// createQuickBar creates the floating draw/done buttons.
func (mw *MainWindow) createQuickBar() fyne.CanvasObject {
	return container.NewHBox(
		widget.NewButton("Draw", func() { mw.state.Controller().SetTool(interaction.ToolDraw) }),
		widget.NewButton("Done", func() { mw.state.Controller().SetTool(interaction.ToolNone) }),
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New Page", mw.onNewPage),
		fyne.NewMenuItem("Open Scene...", mw.onOpenScene),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export PNG...", mw.onExportPNG),
		fyne.NewMenuItem("Export and Upload", mw.onUpload),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Add Text", func() { mw.state.Controller().AddText() }),
		fyne.NewMenuItem("Delete Selection", mw.onDeleteSelection),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.canvas.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.canvas.ZoomOut),
		fyne.NewMenuItem("Fit to Window", mw.onFitToWindow),
		fyne.NewMenuItem("Actual Size", mw.onActualSize),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventSceneLoaded, func(data interface{}) {
		if path, ok := data.(string); ok && path != "" {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.updateStatus("Scene loaded: " + path)
			return
		}
		mw.SetTitle(appTitle + " - New Page")
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		modified, ok := data.(bool)
		if !ok {
			return
		}
		title := strings.TrimSuffix(mw.Title(), " *")
		if modified {
			title += " *"
		}
		mw.SetTitle(title)
	})

	mw.state.On(app.EventExportStarted, func(interface{}) {
		mw.updateStatus("Exporting...")
	})
	mw.state.On(app.EventExported, func(data interface{}) {
		if res, ok := data.(*compose.Result); ok {
			mw.updateStatus(fmt.Sprintf("Exported %dx%d (%d bytes)", res.Width, res.Height, len(res.PNG)))
		}
	})
	mw.state.On(app.EventUploaded, func(data interface{}) {
		if url, ok := data.(string); ok {
			mw.updateStatus("Uploaded: " + url)
		}
	})
	mw.state.On(app.EventExportFailed, func(data interface{}) {
		if err, ok := data.(error); ok {
			mw.updateStatus("Export failed: " + err.Error())
		}
	})

	mw.SetCloseIntercept(func() {
		mw.SavePreferences()
		mw.Close()
	})
}

// SavePreferences persists preferences, reporting failures in the status bar.
func (mw *MainWindow) SavePreferences() {
	if err := mw.prefs.SaveIfChanged(); err != nil {
		mw.state.Logger().Warn("failed to save preferences", "error", err)
	}
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastDir, filepath.Dir(filePath))
}

// Menu action handlers

func (mw *MainWindow) onNewPage() {
	mw.state.NewPage()
}

func (mw *MainWindow) onOpenScene() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadScene(context.Background(), path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".yaml", ".yml"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExportPNG() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".png" {
			path += ".png"
		}
		mw.saveLastDir(path)
		mw.export(func(ctx context.Context) error {
			return mw.state.ExportFile(ctx, path)
		})
	}, mw.Window)
	fd.SetFileName("diary.png")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onUpload() {
	mw.export(func(ctx context.Context) error {
		_, err := mw.state.ExportAndUpload(ctx)
		return err
	})
}

// export runs fn off the UI goroutine; the controller ignores input until it
// finishes.
func (mw *MainWindow) export(fn func(ctx context.Context) error) {
	go func() {
		err := fn(context.Background())
		switch {
		case err == nil:
		case errors.Is(err, compose.ErrPageMutated):
			dialog.ShowInformation("Export", "The page changed while exporting. Please try again.", mw.Window)
		default:
			dialog.ShowError(err, mw.Window)
		}
	}()
}

func (mw *MainWindow) onDeleteSelection() {
	c := mw.state.Controller()
	if st := c.Status(); st.ID != 0 {
		if err := c.Delete(st.ID); err != nil {
			mw.updateStatus(err.Error())
		}
	}
}

func (mw *MainWindow) onFitToWindow() {
	mw.canvas.FitToWindow(mw.scroll.Size())
}

func (mw *MainWindow) onActualSize() {
	mw.canvas.SetZoom(1.0)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Memento",
		fmt.Sprintf("Memento v%s\n\n"+
			"Compose diary pages from text, images, stickers and ink.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
