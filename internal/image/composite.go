package image

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Composite stacks image layers over a solid background.
type Composite struct {
	Width     int
	Height    int
	Layers    []*CompositeLayer
	BackColor color.Color
	// Scaler resamples layers whose destination size differs from their
	// source size.
	Scaler xdraw.Scaler
}

// CompositeLayer places an image into a destination rectangle.
type CompositeLayer struct {
	Image image.Image
	Dst   image.Rectangle
}

// NewComposite creates a new Composite with the specified dimensions.
func NewComposite(width, height int, back color.Color) *Composite {
	return &Composite{
		Width:     width,
		Height:    height,
		BackColor: back,
		Scaler:    xdraw.CatmullRom,
	}
}

// AddLayer adds a layer drawn into dst. Layers are drawn in the order added.
func (c *Composite) AddLayer(img image.Image, dst image.Rectangle) {
	c.Layers = append(c.Layers, &CompositeLayer{Image: img, Dst: dst})
}

// AddFullLayer adds a layer covering the whole composite.
func (c *Composite) AddFullLayer(img image.Image) {
	c.AddLayer(img, image.Rect(0, 0, c.Width, c.Height))
}

// Render produces the final composited image.
func (c *Composite) Render() *image.RGBA {
	result := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	if c.BackColor != nil {
		draw.Draw(result, result.Bounds(), &image.Uniform{C: c.BackColor}, image.Point{}, draw.Src)
	}
	for _, cl := range c.Layers {
		if cl.Image == nil || cl.Dst.Empty() {
			continue
		}
		c.compositeLayer(result, cl)
	}
	return result
}

func (c *Composite) compositeLayer(dst *image.RGBA, cl *CompositeLayer) {
	sb := cl.Image.Bounds()
	if sb.Dx() == cl.Dst.Dx() && sb.Dy() == cl.Dst.Dy() {
		draw.Draw(dst, cl.Dst, cl.Image, sb.Min, draw.Over)
		return
	}
	scaler := c.Scaler
	if scaler == nil {
		scaler = xdraw.ApproxBiLinear
	}
	scaler.Scale(dst, cl.Dst, cl.Image, sb, xdraw.Over, nil)
}
