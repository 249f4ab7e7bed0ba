package card

import (
	"math"

	"github.com/dzhang123/DynaCard/internal/domain/edge"
)

// parallelTolerance bounds the determinant below which two edge lines are
// treated as parallel.
const parallelTolerance = 1e-12

// Properties are whole-card shape measurements on normalized coordinates.
type Properties struct {
	// Area enclosed by the card curve; a full unit square is 1.
	Area float64 `json:"area"`
	// DistanceFromShape is the mean distance from each point to the
	// quadrilateral formed by the four fitted edge lines.
	DistanceFromShape float64 `json:"distance_from_shape"`
	// DistanceFromRotatedShape is the same mean distance against that
	// quadrilateral turned 180 degrees about its lower-left/upper-right diagonal.
	DistanceFromRotatedShape float64 `json:"distance_from_rotated_shape"`
	// Vertices of the fitted quadrilateral: lower-left, upper-left,
	// upper-right, lower-right.
	Vertices [4]edge.Point `json:"vertices"`
}

// Properties measures the card.
func (c *Card) Properties() Properties {
	pts := c.Points()
	quad := c.quadrilateral()
	return Properties{
		Area:                     polygonArea(pts),
		DistanceFromShape:        meanDistance(pts, quad),
		DistanceFromRotatedShape: meanDistance(pts, rotate180(quad)),
		Vertices:                 quad,
	}
}

// polygonArea is the shoelace area of the closed point sequence.
func polygonArea(pts []edge.Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

// line is a*x + b*y = c.
type line struct{ a, b, c float64 }

// fittedLine picks the better of the edge's two fits so that vertical
// edges, whose forward fit is undefined, still yield a usable line.
func fittedLine(e *edge.Edge) (line, bool) {
	fwd, inv := e.Forward(), e.Inverse()
	useInverse := !finiteLine(fwd) || (finiteLine(inv) && inv.Residual < fwd.Residual)
	switch {
	case useInverse && finiteLine(inv):
		return line{a: 1, b: -inv.Slope, c: inv.Intercept}, true
	case finiteLine(fwd):
		return line{a: -fwd.Slope, b: 1, c: fwd.Intercept}, true
	default:
		return line{}, false
	}
}

func finiteLine(l edge.Line) bool {
	for _, v := range []float64{l.Slope, l.Intercept, l.Residual} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// vertex intersects the fitted lines of edges p and q, falling back to the
// first point of q (the corner they share) when the lines are parallel or
// undefined.
func vertex(p, q *edge.Edge) edge.Point {
	corner := q.Points()[0]
	l1, ok1 := fittedLine(p)
	l2, ok2 := fittedLine(q)
	if !ok1 || !ok2 {
		return corner
	}
	det := l1.a*l2.b - l2.a*l1.b
	if math.Abs(det) < parallelTolerance {
		return corner
	}
	return edge.Point{
		X: (l1.c*l2.b - l2.c*l1.b) / det,
		Y: (l1.a*l2.c - l2.a*l1.c) / det,
	}
}

func (c *Card) quadrilateral() [4]edge.Point {
	return [4]edge.Point{
		vertex(c.Bottom(), c.Left()),
		vertex(c.Left(), c.Top()),
		vertex(c.Top(), c.Right()),
		vertex(c.Right(), c.Bottom()),
	}
}

// rotate180 keeps vertices 1 and 3 and mirrors 2 and 4 through the
// midpoint of the 1-3 diagonal.
func rotate180(q [4]edge.Point) [4]edge.Point {
	v1, v2, v3, v4 := q[0], q[1], q[2], q[3]
	return [4]edge.Point{
		v1,
		{X: v3.X - (v4.X - v1.X), Y: v3.Y - (v4.Y - v1.Y)},
		v3,
		{X: v3.X - (v2.X - v1.X), Y: v3.Y - (v2.Y - v1.Y)},
	}
}

func meanDistance(pts []edge.Point, q [4]edge.Point) float64 {
	if len(pts) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pts {
		d := math.Inf(1)
		for i := range q {
			d = math.Min(d, segmentDistance(p, q[i], q[(i+1)%len(q)]))
		}
		sum += d
	}
	return sum / float64(len(pts))
}

func segmentDistance(p, a, b edge.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
