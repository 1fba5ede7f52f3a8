package ink

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"memento/internal/page"
	"memento/pkg/geometry"
)

// circleSegments is the polygon resolution used for round caps and joins.
const circleSegments = 16

// Render draws strokes in order onto a transparent layer of the given size.
// Page coordinates are mapped to pixels through xf. Erase strokes remove
// coverage from the layer (destination-out) and never touch anything below it.
func Render(strokes []page.Stroke, size image.Point, xf geometry.AffineTransform) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	DrawStrokes(dst, strokes, xf)
	return dst
}

// DrawStrokes rasterizes strokes onto dst in order.
func DrawStrokes(dst *image.RGBA, strokes []page.Stroke, xf geometry.AffineTransform) {
	for _, s := range strokes {
		drawStroke(dst, s, xf)
	}
}

func drawStroke(dst *image.RGBA, s page.Stroke, xf geometry.AffineTransform) {
	if len(s.Points) == 0 {
		return
	}
	pts := make([]geometry.Point2D, len(s.Points))
	for i, p := range s.Points {
		pts[i] = xf.Apply(p)
	}
	half := s.Width * xf.ScaleFactor() / 2
	if half < 0.5 {
		half = 0.5
	}

	bb := geometry.BoundingBox(pts)
	area := image.Rect(
		int(math.Floor(bb.X-half-1)),
		int(math.Floor(bb.Y-half-1)),
		int(math.Ceil(bb.X+bb.Width+half+1)),
		int(math.Ceil(bb.Y+bb.Height+half+1)),
	).Intersect(dst.Bounds())
	if area.Empty() {
		return
	}

	z := vector.NewRasterizer(area.Dx(), area.Dy())
	origin := geometry.NewPoint2D(float64(area.Min.X), float64(area.Min.Y))

	for _, p := range pts {
		addPolygon(z, geometry.CirclePolygon(p.Sub(origin), half, circleSegments))
	}
	for i := 1; i < len(pts); i++ {
		addPolygon(z, geometry.SegmentQuad(pts[i-1].Sub(origin), pts[i].Sub(origin), half))
	}

	var src image.Image
	if s.Erase {
		z.DrawOp = draw.Src
		src = image.Transparent
	} else {
		z.DrawOp = draw.Over
		src = image.NewUniform(s.Color)
	}
	z.Draw(dst, area, src, image.Point{})
}

func addPolygon(z *vector.Rasterizer, poly []geometry.Point2D) {
	if len(poly) < 3 {
		return
	}
	z.MoveTo(float32(poly[0].X), float32(poly[0].Y))
	for _, p := range poly[1:] {
		z.LineTo(float32(p.X), float32(p.Y))
	}
	z.ClosePath()
}
