// Package app wires the page components together and provides application
// lifecycle management and events.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"memento/internal/compose"
	"memento/internal/config"
	"memento/internal/focus"
	"memento/internal/image"
	"memento/internal/ink"
	"memento/internal/interaction"
	"memento/internal/page"
	"memento/internal/project"
	"memento/internal/upload"
)

// State holds the current page session and the collaborators around it.
type State struct {
	mu sync.RWMutex

	// Scene
	ScenePath string
	Modified  bool

	// LastUpload is the URL returned by the most recent upload.
	LastUpload string

	cfg    *config.Config
	logger *slog.Logger

	source     image.Source
	images     *image.Loader
	text       *compose.TextRenderer
	uploader   upload.Uploader
	model      *page.Model
	ink        *ink.Layer
	focus      *focus.Machine
	controller *interaction.Controller
	composer   *compose.Composer

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventElementAdded EventType = iota
	EventElementRemoved
	EventElementChanged
	EventFocusChanged
	EventStrokeSealed
	EventBackgroundChanged
	EventToolChanged
	EventStyleChanged
	EventModified
	EventSceneLoaded
	EventExportStarted
	EventExported
	EventExportFailed
	EventUploaded
)

// controllerEvents maps controller events onto application events.
var controllerEvents = map[interaction.Event]EventType{
	interaction.EventElementAdded:      EventElementAdded,
	interaction.EventElementRemoved:    EventElementRemoved,
	interaction.EventElementChanged:    EventElementChanged,
	interaction.EventFocusChanged:      EventFocusChanged,
	interaction.EventStrokeSealed:      EventStrokeSealed,
	interaction.EventBackgroundChanged: EventBackgroundChanged,
	interaction.EventToolChanged:       EventToolChanged,
	interaction.EventStyleChanged:      EventStyleChanged,
}

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates the application state for cfg with images read from src.
// A nil src starts with no images; a nil uploader writes into cfg.Upload.Dir.
func NewState(cfg *config.Config, src image.Source, uploader upload.Uploader, logger *slog.Logger) (*State, error) {
	text, err := compose.NewTextRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if src == nil {
		src = image.MemorySource{}
	}
	if uploader == nil {
		uploader = &upload.DirUploader{
			Dir:     cfg.Upload.Dir,
			BaseURL: cfg.Upload.BaseURL,
			Logger:  logger,
		}
	}
	s := &State{
		cfg:       cfg,
		logger:    logger,
		text:      text,
		uploader:  uploader,
		listeners: make(map[EventType][]EventListener),
	}
	s.reset(src)
	return s, nil
}

// reset builds a fresh, empty page over src.
func (s *State) reset(src image.Source) {
	cfg := s.cfg
	model := page.NewModel(cfg.PageSize(), cfg.BackgroundColor())
	layer := ink.NewLayer(cfg.InkStyle(), cfg.Tools.LineWidthMin, cfg.Tools.LineWidthMax)
	machine := focus.NewMachine(model, focus.NewArena(), focus.NewZones(), s.logger)
	loader := image.NewLoader(src)

	controller := interaction.New(model, layer, machine, interaction.Options{
		Config:   cfg.Interaction(),
		Resolver: loader,
		Measurer: s.text,
		Emitter:  interaction.EmitterFunc(s.forward),
		Logger:   s.logger,
	})
	rast := &compose.PageRasterizer{Pixels: loader, Text: s.text, Logger: s.logger}
	composer := compose.New(model, layer, controller, rast, compose.Config{
		Scale:       cfg.Export.Scale,
		SettleDelay: cfg.Export.SettleDelay,
		HandleSize:  cfg.Tools.HandleSize,
	}, s.logger)

	s.mu.Lock()
	s.source = src
	s.images = loader
	s.model = model
	s.ink = layer
	s.focus = machine
	s.controller = controller
	s.composer = composer
	s.ScenePath = ""
	s.Modified = false
	s.mu.Unlock()
}

// forward re-emits a controller event and marks the page modified when the
// event changed it.
func (s *State) forward(ev interaction.Event, data interface{}) {
	switch ev {
	case interaction.EventElementAdded, interaction.EventElementRemoved,
		interaction.EventElementChanged, interaction.EventStrokeSealed,
		interaction.EventBackgroundChanged:
		s.SetModified(true)
	}
	if t, ok := controllerEvents[ev]; ok {
		s.Emit(t, data)
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the page as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	changed := s.Modified != modified
	s.Modified = modified
	s.mu.Unlock()
	if changed {
		s.Emit(EventModified, modified)
	}
}

// IsModified reports whether the page changed since it was loaded or exported.
func (s *State) IsModified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Modified
}

// Config returns the loaded configuration.
func (s *State) Config() *config.Config { return s.cfg }

// Logger returns the application logger.
func (s *State) Logger() *slog.Logger { return s.logger }

// Controller returns the interaction controller of the current page.
func (s *State) Controller() *interaction.Controller {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controller
}

// Composer returns the exporter of the current page.
func (s *State) Composer() *compose.Composer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.composer
}

// Model returns the current page.
func (s *State) Model() *page.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Images returns the image loader of the current page.
func (s *State) Images() *image.Loader {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.images
}

// NewPage discards the current page and starts an empty one.
func (s *State) NewPage() {
	s.mu.RLock()
	src := s.source
	s.mu.RUnlock()
	s.reset(src)
	s.Emit(EventSceneLoaded, "")
}

// LoadScene replays a scene script onto a fresh page. Images are read from
// the scene's images directory.
func (s *State) LoadScene(ctx context.Context, path string) error {
	f, err := project.Load(path)
	if err != nil {
		return err
	}
	s.reset(image.DirSource{Root: f.GetImagesDir(path)})
	if err := project.Play(ctx, s.Controller(), f.Steps, s.logger); err != nil {
		return fmt.Errorf("failed to replay %s: %w", path, err)
	}

	s.mu.Lock()
	s.ScenePath = path
	s.Modified = false
	s.mu.Unlock()
	s.logger.Info("scene loaded", "path", path, "steps", len(f.Steps), "elements", s.Model().Len())
	s.Emit(EventSceneLoaded, path)
	return nil
}

// Export renders the page to PNG.
func (s *State) Export(ctx context.Context) (*compose.Result, error) {
	s.Emit(EventExportStarted, nil)
	res, err := s.Composer().Export(ctx)
	if err != nil {
		s.Emit(EventExportFailed, err)
		return nil, err
	}
	s.Emit(EventExported, res)
	return res, nil
}

// ExportFile renders the page and writes the PNG to path.
func (s *State) ExportFile(ctx context.Context, path string) error {
	res, err := s.Export(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, res.PNG, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	s.SetModified(false)
	return nil
}

// ExportAndUpload renders the page and hands the PNG to the uploader,
// returning the stored URL.
func (s *State) ExportAndUpload(ctx context.Context) (string, error) {
	res, err := s.Export(ctx)
	if err != nil {
		return "", err
	}
	return s.Upload(ctx, res)
}

// Upload hands an already exported result to the uploader and returns the
// stored URL.
func (s *State) Upload(ctx context.Context, res *compose.Result) (string, error) {
	url, err := s.uploader.Upload(ctx, res.PNG)
	if err != nil {
		s.Emit(EventExportFailed, err)
		return "", fmt.Errorf("failed to upload export: %w", err)
	}

	s.mu.Lock()
	s.LastUpload = url
	s.mu.Unlock()
	s.SetModified(false)
	s.Emit(EventUploaded, url)
	return url, nil
}
