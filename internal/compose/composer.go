// Package compose flattens the page, its elements and its ink into a single
// bitmap. Export produces the PNG handed to the upload collaborator; Preview
// renders the same pipeline with affordances for the interactive surface.
package compose

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"time"

	"memento/internal/ink"
	"memento/internal/page"
)

var (
	// ErrExport wraps every rasterization or encoding failure.
	ErrExport = errors.New("export failed")
	// ErrPageMutated is returned when the page changed while an export ran.
	ErrPageMutated = errors.New("page changed during export")
)

// Pauser suspends input while an export runs.
type Pauser interface {
	Pause()
	Resume()
}

// Config controls export.
type Config struct {
	// Scale is the output pixels per page unit.
	Scale float64
	// SettleDelay lets pending layout settle before the snapshot is taken.
	SettleDelay time.Duration
	// HandleSize is the resize handle edge in page units, for previews.
	HandleSize float64
}

// Result is an encoded export.
type Result struct {
	PNG    []byte
	Width  int
	Height int
}

// Composer exports the page.
type Composer struct {
	model  *page.Model
	ink    *ink.Layer
	pauser Pauser
	rast   Rasterizer
	cfg    Config
	logger *slog.Logger
}

// New creates a composer. pauser may be nil.
func New(model *page.Model, layer *ink.Layer, pauser Pauser, rast Rasterizer, cfg Config, logger *slog.Logger) *Composer {
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		model:  model,
		ink:    layer,
		pauser: pauser,
		rast:   rast,
		cfg:    cfg,
		logger: logger.With("component", "compose"),
	}
}

// Export pauses input, waits for the settle delay, rasterizes the page
// without affordances and encodes it as PNG. The page itself is never
// modified; a failed export can be retried.
func (c *Composer) Export(ctx context.Context) (*Result, error) {
	if c.pauser != nil {
		c.pauser.Pause()
		defer c.pauser.Resume()
	}

	if err := c.settle(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	scene, mv, iv := c.scene()
	img, err := c.rast.Rasterize(ctx, scene, Options{Scale: c.cfg.Scale})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: rasterize: %v", ErrExport, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", ErrExport, err)
	}

	if c.model.Version() != mv || c.inkVersion() != iv {
		return nil, ErrPageMutated
	}

	b := img.Bounds()
	c.logger.Info("page exported",
		"elements", len(scene.Elements),
		"strokes", len(scene.Strokes),
		"width", b.Dx(), "height", b.Dy(),
		"bytes", buf.Len(),
		"duration", time.Since(start))
	return &Result{PNG: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// Preview renders the page at scale with selection outlines and handles.
func (c *Composer) Preview(ctx context.Context, scale float64) (*image.RGBA, error) {
	scene, _, _ := c.scene()
	if c.ink != nil {
		if s, ok := c.ink.Active(); ok && len(s.Points) > 0 {
			scene.Strokes = append(scene.Strokes, s)
		}
	}
	img, err := c.rast.Rasterize(ctx, scene, Options{
		Scale:       scale,
		Affordances: true,
		HandleSize:  c.cfg.HandleSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: preview: %v", ErrExport, err)
	}
	return img, nil
}

func (c *Composer) scene() (Scene, uint64, uint64) {
	iv := c.inkVersion()
	snap := c.model.Snapshot()
	if c.ink != nil {
		snap.Strokes = c.ink.Strokes()
	}
	return Scene{Snapshot: snap}, snap.Version, iv
}

func (c *Composer) inkVersion() uint64 {
	if c.ink == nil {
		return 0
	}
	return c.ink.Version()
}

func (c *Composer) settle(ctx context.Context) error {
	if c.cfg.SettleDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.cfg.SettleDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
