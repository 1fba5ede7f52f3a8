// Package image provides image sources, intrinsic-size resolution, and layer
// compositing for the page.
package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "golang.org/x/image/tiff"

	"memento/pkg/geometry"
)

// ErrUnknownRef is returned when a source has nothing under a reference.
var ErrUnknownRef = errors.New("unknown image reference")

// Source opens the encoded bytes behind an image reference.
type Source interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// DirSource serves images from files below Root. References are slash
// separated paths relative to Root.
type DirSource struct {
	Root string
}

// Open implements Source.
func (d DirSource) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := filepath.FromSlash(ref)
	if !filepath.IsLocal(name) {
		return nil, fmt.Errorf("open %q: %w", ref, ErrUnknownRef)
	}
	f, err := os.Open(filepath.Join(d.Root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %q: %w", ref, ErrUnknownRef)
		}
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return f, nil
}

// List returns the references of the supported images directly under Root,
// sorted. The sticker tray is filled from this.
func (d DirSource) List() ([]string, error) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	var refs []string
	for _, e := range entries {
		if !e.IsDir() && IsSupportedFormat(e.Name()) {
			refs = append(refs, e.Name())
		}
	}
	sort.Strings(refs)
	return refs, nil
}

// MemorySource serves images from memory, keyed by reference.
type MemorySource map[string][]byte

// Open implements Source.
func (m MemorySource) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, ok := m[ref]
	if !ok {
		return nil, fmt.Errorf("open %q: %w", ref, ErrUnknownRef)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

// Loader decodes images from a Source and caches the decoded pixels.
type Loader struct {
	src Source

	mu    sync.Mutex
	cache map[string]image.Image
}

// NewLoader creates a loader over src.
func NewLoader(src Source) *Loader {
	return &Loader{src: src, cache: make(map[string]image.Image)}
}

// Resolve reports the intrinsic pixel size of ref from its header only.
func (l *Loader) Resolve(ctx context.Context, ref string) (geometry.Size, error) {
	l.mu.Lock()
	img, ok := l.cache[ref]
	l.mu.Unlock()
	if ok {
		b := img.Bounds()
		return geometry.NewSize(float64(b.Dx()), float64(b.Dy())), nil
	}

	rc, err := l.src.Open(ctx, ref)
	if err != nil {
		return geometry.Size{}, err
	}
	defer rc.Close()

	cfg, _, err := image.DecodeConfig(rc)
	if err != nil {
		return geometry.Size{}, fmt.Errorf("failed to decode image header %q: %w", ref, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return geometry.Size{}, fmt.Errorf("image %q has no pixels", ref)
	}
	return geometry.NewSize(float64(cfg.Width), float64(cfg.Height)), nil
}

// Load returns the decoded pixels of ref.
func (l *Loader) Load(ctx context.Context, ref string) (image.Image, error) {
	l.mu.Lock()
	img, ok := l.cache[ref]
	l.mu.Unlock()
	if ok {
		return img, nil
	}

	rc, err := l.src.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, _, err = image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %q: %w", ref, err)
	}

	l.mu.Lock()
	l.cache[ref] = img
	l.mu.Unlock()
	return img, nil
}

// Forget drops a cached image.
func (l *Loader) Forget(ref string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, ref)
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".tiff", ".tif"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
