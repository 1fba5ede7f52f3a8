package compose

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"

	mimage "memento/internal/image"
	"memento/internal/ink"
	"memento/internal/interaction"
	"memento/internal/page"
	"memento/pkg/colorutil"
	"memento/pkg/geometry"
)

// Scene is everything the rasterizer draws: the page snapshot and the sealed
// ink strokes.
type Scene struct {
	page.Snapshot
}

// Options controls one rasterization.
type Options struct {
	// Scale maps page units to output pixels.
	Scale float64
	// Affordances draws selection outlines and resize handles.
	Affordances bool
	// HandleSize is the resize handle edge in page units.
	HandleSize float64
	// OutlineWidth is the selection outline width in output pixels.
	OutlineWidth int
}

// Rasterizer turns a scene into a bitmap.
type Rasterizer interface {
	Rasterize(ctx context.Context, scene Scene, opts Options) (*image.RGBA, error)
}

// PixelLoader supplies decoded image pixels for visual elements.
type PixelLoader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

var placeholderColor = color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}

// PageRasterizer is the default Rasterizer. Elements are drawn in z order,
// then the ink layer on top, then affordances when requested.
type PageRasterizer struct {
	Pixels PixelLoader
	Text   *TextRenderer
	Logger *slog.Logger
}

// Rasterize implements Rasterizer.
func (r *PageRasterizer) Rasterize(ctx context.Context, scene Scene, opts Options) (*image.RGBA, error) {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	w := int(math.Round(scene.Bounds.Width * scale))
	h := int(math.Round(scene.Bounds.Height * scale))

	comp := mimage.NewComposite(w, h, scene.Background)
	xf := geometry.Scale(scale, scale)

	for _, e := range scene.Elements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dst := pixelRect(e.Rect(), scale)
		if dst.Empty() {
			continue
		}
		switch body := e.Body.(type) {
		case *page.TextBody:
			tile := image.NewRGBA(image.Rect(0, 0, dst.Dx(), dst.Dy()))
			if r.Text != nil && body.Content != "" {
				if err := r.Text.Draw(tile, tile.Bounds(), body.Content, body.FontSize*scale, body.Color); err != nil {
					return nil, err
				}
			}
			comp.AddLayer(tile, dst)
		case *page.VisualBody:
			img, err := r.load(ctx, body.SourceRef)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logger.Warn("drawing placeholder for unavailable image", "ref", body.SourceRef, "error", err)
				img = &sized{Image: image.NewUniform(placeholderColor), r: image.Rect(0, 0, dst.Dx(), dst.Dy())}
			}
			comp.AddLayer(img, dst)
		}
	}

	if len(scene.Strokes) > 0 {
		comp.AddFullLayer(ink.Render(scene.Strokes, image.Pt(w, h), xf))
	}

	out := comp.Render()
	if opts.Affordances {
		drawAffordances(out, scene.Elements, opts, scale)
	}
	return out, nil
}

func (r *PageRasterizer) load(ctx context.Context, ref string) (image.Image, error) {
	if r.Pixels == nil {
		return nil, mimage.ErrUnknownRef
	}
	return r.Pixels.Load(ctx, ref)
}

func drawAffordances(dst *image.RGBA, elements []*page.Element, opts Options, scale float64) {
	lw := opts.OutlineWidth
	if lw <= 0 {
		lw = 1
	}
	outline := image.NewUniform(colorutil.OutlineColor)
	handle := image.NewUniform(colorutil.HandleColor)
	for _, e := range elements {
		if !e.Focused {
			continue
		}
		rect := pixelRect(e.Rect(), scale)
		strokeRect(dst, rect, lw, outline)
		if opts.HandleSize > 0 {
			hr := pixelRect(interaction.HandleRect(e, opts.HandleSize), scale)
			draw.Draw(dst, hr, handle, image.Point{}, draw.Over)
		}
	}
}

func strokeRect(dst draw.Image, r image.Rectangle, w int, src image.Image) {
	sides := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w),
		image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y),
		image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, s := range sides {
		draw.Draw(dst, s, src, image.Point{}, draw.Over)
	}
}

// pixelRect converts a page rectangle to output pixels.
func pixelRect(r geometry.Rect, scale float64) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X*scale)),
		int(math.Round(r.Y*scale)),
		int(math.Round((r.X+r.Width)*scale)),
		int(math.Round((r.Y+r.Height)*scale)),
	)
}

// sized gives an unbounded image finite bounds.
type sized struct {
	image.Image
	r image.Rectangle
}

func (s *sized) Bounds() image.Rectangle { return s.r }
