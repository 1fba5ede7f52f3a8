// Package constraint keeps element geometry inside the page. Every function
// is pure and total: out-of-range input is clamped, never rejected.
package constraint

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"

	"memento/pkg/geometry"
)

// AspectTolerance is the allowed drift of width/height from the locked ratio.
const AspectTolerance = 1e-6

// ClampPosition keeps an element of the given size inside bounds.
// An element wider (taller) than the page is pinned to 0 on that axis.
func ClampPosition(pos geometry.Point2D, size geometry.Size, bounds geometry.Size) geometry.Point2D {
	return geometry.Point2D{
		X: math.Max(0, geometry.Clamp(pos.X, 0, bounds.Width-size.Width)),
		Y: math.Max(0, geometry.Clamp(pos.Y, 0, bounds.Height-size.Height)),
	}
}

// available returns the span left between pos and the far page edges.
func available(pos geometry.Point2D, bounds geometry.Size) geometry.Size {
	return geometry.Size{
		Width:  math.Max(0, bounds.Width-pos.X),
		Height: math.Max(0, bounds.Height-pos.Y),
	}
}

// ResizeFree resizes each axis independently, clamped to [minSize, remaining span].
// When the remaining span is smaller than minSize the span wins.
func ResizeFree(current geometry.Size, delta geometry.Point2D, bounds geometry.Size, pos geometry.Point2D, minSize geometry.Size) geometry.Size {
	avail := available(pos, bounds)
	return geometry.Size{
		Width:  geometry.Clamp(current.Width+delta.X, minSize.Width, avail.Width),
		Height: geometry.Clamp(current.Height+delta.Y, minSize.Height, avail.Height),
	}
}

// ResizeLocked resizes while holding width/height at ratio.
//
// The axis whose change is larger (after projecting the vertical change
// through ratio) drives the candidate. The minWidth floor is applied to the
// candidate before the bounds are: the largest width that fits is the smaller
// of the remaining width and the remaining height times ratio, which is also
// the smaller-area choice when both bounds bind.
func ResizeLocked(current geometry.Size, delta geometry.Point2D, ratio float64, bounds geometry.Size, pos geometry.Point2D, minWidth float64) geometry.Size {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		ratio = 1
	}

	var width float64
	if math.Abs(delta.X) >= math.Abs(delta.Y)*ratio {
		width = current.Width + delta.X
	} else {
		width = (current.Height + delta.Y) * ratio
	}
	width = math.Max(width, minWidth)

	avail := available(pos, bounds)
	maxWidth := math.Min(avail.Width, avail.Height*ratio)
	width = math.Min(width, maxWidth)

	return geometry.Size{Width: width, Height: width / ratio}
}

// Request bundles the inputs of a resize so locked and free elements share one path.
type Request struct {
	Current    geometry.Size
	Delta      geometry.Point2D
	Position   geometry.Point2D
	Bounds     geometry.Size
	LockAspect bool
	// AspectRatio is used only when LockAspect is set.
	AspectRatio float64
	// MinSize is the per-axis floor; a locked resize uses only its width.
	MinSize geometry.Size
}

// Resize dispatches to ResizeLocked or ResizeFree.
func Resize(r Request) geometry.Size {
	if r.LockAspect {
		return ResizeLocked(r.Current, r.Delta, r.AspectRatio, r.Bounds, r.Position, r.MinSize.Width)
	}
	return ResizeFree(r.Current, r.Delta, r.Bounds, r.Position, r.MinSize)
}

// InBounds reports whether a rectangle lies fully inside the page.
func InBounds(pos geometry.Point2D, size geometry.Size, bounds geometry.Size) bool {
	const eps = 1e-9
	return pos.X >= -eps && pos.Y >= -eps &&
		pos.X+size.Width <= bounds.Width+eps &&
		pos.Y+size.Height <= bounds.Height+eps
}

// AspectHolds reports whether size keeps ratio within AspectTolerance.
func AspectHolds(size geometry.Size, ratio float64) bool {
	if size.Height == 0 {
		return size.Width == 0
	}
	return scalar.EqualWithinAbs(size.Width/size.Height, ratio, AspectTolerance)
}

// FitAspect returns the largest size with the given ratio whose width does not
// exceed box.Width and height does not exceed box.Height.
func FitAspect(box geometry.Size, ratio float64) geometry.Size {
	if ratio <= 0 {
		ratio = 1
	}
	w := math.Min(box.Width, box.Height*ratio)
	return geometry.Size{Width: w, Height: w / ratio}
}
