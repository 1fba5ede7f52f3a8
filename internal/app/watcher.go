package app

import (
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Lister lists the references available to the sticker tray.
type Lister interface {
	List() ([]string, error)
}

// TrayWatcher watches a sticker directory and triggers a callback when the
// set of stickers changes, so the tray picks up files dropped in while the
// application runs. Directory notifications come from fsnotify; when they are
// unavailable the listing is polled instead.
type TrayWatcher struct {
	mu       sync.Mutex
	lister   Lister
	dir      string
	current  []string
	fallback time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	onChange func(refs []string) // Called with the new listing
}

// NewTrayWatcher creates a watcher over lister, whose entries live in dir.
// The initial listing becomes the baseline; a listing error leaves it empty.
// fallback is the polling interval used when dir cannot be watched.
func NewTrayWatcher(lister Lister, dir string, fallback time.Duration, logger *slog.Logger) *TrayWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	refs, _ := lister.List()
	return &TrayWatcher{
		lister:   lister,
		dir:      dir,
		current:  refs,
		fallback: fallback,
		logger:   logger.With("component", "tray"),
	}
}

// OnChange sets the callback to invoke when the listing changes.
// The callback is called from a background goroutine - use appropriate
// synchronization if updating UI.
func (w *TrayWatcher) OnChange(callback func(refs []string)) {
	w.mu.Lock()
	w.onChange = callback
	w.mu.Unlock()
}

// Current returns the last observed listing.
func (w *TrayWatcher) Current() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.current)
}

// Start begins watching in a background goroutine. Starting a running
// watcher does nothing.
func (w *TrayWatcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopCh != nil {
		return
	}
	stop, done := make(chan struct{}), make(chan struct{})
	w.stopCh, w.doneCh = stop, done

	fsw, err := w.watchDir()
	if err == nil {
		w.logger.Debug("watching sticker directory", "dir", w.dir)
		go w.eventLoop(fsw, stop, done)
		return
	}
	if w.fallback <= 0 {
		w.logger.Warn("sticker directory not watched", "dir", w.dir, "error", err)
		close(done)
		return
	}
	w.logger.Warn("directory notifications unavailable, polling", "dir", w.dir, "interval", w.fallback, "error", err)
	go w.pollLoop(stop, done)
}

// Stop stops the watcher goroutine and waits for it to exit. It is safe to
// call more than once.
func (w *TrayWatcher) Stop() {
	w.mu.Lock()
	stop, done := w.stopCh, w.doneCh
	w.stopCh, w.doneCh = nil, nil
	w.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (w *TrayWatcher) watchDir() (*fsnotify.Watcher, error) {
	if w.dir == "" {
		return nil, errors.New("no directory to watch")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return fsw, nil
}

func (w *TrayWatcher) eventLoop(fsw *fsnotify.Watcher, stop, done chan struct{}) {
	defer close(done)
	defer fsw.Close()

	for {
		select {
		case <-stop:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			// Only entries appearing or disappearing change the listing
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.Check()
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("sticker directory watch error", "dir", w.dir, "error", err)
		}
	}
}

func (w *TrayWatcher) pollLoop(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.fallback)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.Check()
		}
	}
}

// Check lists the directory once and reports whether the listing changed,
// invoking the callback if it did.
func (w *TrayWatcher) Check() bool {
	refs, err := w.lister.List()
	if err != nil {
		w.logger.Debug("failed to list stickers", "error", err)
		return false
	}

	w.mu.Lock()
	if slices.Equal(refs, w.current) {
		w.mu.Unlock()
		return false
	}
	w.current = refs
	cb := w.onChange
	w.mu.Unlock()

	if cb != nil {
		cb(slices.Clone(refs))
	}
	return true
}
