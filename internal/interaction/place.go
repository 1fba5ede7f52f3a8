package interaction

import (
	"context"
	"fmt"

	"memento/internal/constraint"
	"memento/internal/page"
	"memento/pkg/geometry"
)

// PlaceImage adds an image element for ref at the image anchor and focuses it.
func (c *Controller) PlaceImage(ctx context.Context, ref string) (page.ID, error) {
	return c.place(ctx, ref, false)
}

// PlaceSticker adds a sticker at a random spot of the scatter area and
// focuses it.
func (c *Controller) PlaceSticker(ctx context.Context, ref string) (page.ID, error) {
	return c.place(ctx, ref, true)
}

func (c *Controller) place(ctx context.Context, ref string, sticker bool) (page.ID, error) {
	if c.Paused() {
		return 0, nil
	}

	// Resolve outside the lock; the resolver may read files.
	ratio := 1.0
	intrinsic, err := c.resolve(ctx, ref)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, fmt.Errorf("failed to place %q: %w", ref, ctxErr)
		}
		c.logger.Warn("failed to resolve image size, using placeholder", "ref", ref, "error", err)
	} else if intrinsic.Width > 0 && intrinsic.Height > 0 {
		ratio = intrinsic.Ratio()
	}

	var id page.ID
	err = c.run(func() error {
		bounds := c.model.Bounds()
		size := InitialSize(ratio, c.cfg.ImageDefaultSize)
		if size.Width > bounds.Width || size.Height > bounds.Height {
			size = constraint.FitAspect(bounds, ratio)
		}

		anchor := c.cfg.ImageAnchor
		if sticker {
			area := c.cfg.StickerScatter
			anchor = geometry.NewPoint2D(
				area.X+c.rng.Float64()*area.Width,
				area.Y+c.rng.Float64()*area.Height,
			)
		}
		pos := constraint.ClampPosition(anchor, size, bounds)

		id = c.model.Add(page.NewVisual(pos, size, ref, ratio, sticker))
		c.registerSnapshot(id)
		c.enqueue(EventElementAdded, id)
		return c.focus.Focus(id)
	})
	return id, err
}

func (c *Controller) resolve(ctx context.Context, ref string) (geometry.Size, error) {
	if c.resolver == nil {
		return geometry.Size{}, fmt.Errorf("no size resolver for %q", ref)
	}
	return c.resolver.Resolve(ctx, ref)
}

// InitialSize is the size of a freshly placed visual: landscape images keep
// the default width, everything else keeps the default height.
func InitialSize(ratio, def float64) geometry.Size {
	if ratio > 1 {
		return geometry.NewSize(def, def/ratio)
	}
	return geometry.NewSize(def*ratio, def)
}

// registerSnapshot installs the live content accessor for id: the text of a
// text element, the source reference of a visual. The focus machine drops it
// when the element is destroyed.
func (c *Controller) registerSnapshot(id page.ID) {
	arena := c.focus.Arena()
	if arena == nil {
		return
	}
	arena.Register(id, func() string {
		e, ok := c.model.Get(id)
		if !ok {
			return ""
		}
		if t := e.Text(); t != nil {
			return t.Content
		}
		if v := e.Visual(); v != nil {
			return v.SourceRef
		}
		return ""
	})
}
