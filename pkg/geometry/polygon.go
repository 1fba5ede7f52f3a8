package geometry

import "math"

// All polygons produced here share one winding (clockwise in a y-up frame),
// so overlapping pieces accumulate instead of cancelling when filled together.

// CirclePolygon approximates a circle with n vertices.
func CirclePolygon(center Point2D, radius float64, n int) []Point2D {
	if n < 3 {
		n = 3
	}
	points := make([]Point2D, n)
	for i := 0; i < n; i++ {
		angle := -float64(i) * 2.0 * math.Pi / float64(n)
		points[i] = Point2D{
			X: center.X + radius*math.Cos(angle),
			Y: center.Y + radius*math.Sin(angle),
		}
	}
	return points
}

// SegmentQuad returns the rectangle of half-width half around the segment a-b.
// Returns nil for a zero-length segment.
func SegmentQuad(a, b Point2D, half float64) []Point2D {
	length := a.Distance(b)
	if length == 0 {
		return nil
	}
	ux := (b.X - a.X) / length
	uy := (b.Y - a.Y) / length
	n := Point2D{X: -uy * half, Y: ux * half}
	return []Point2D{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)}
}
