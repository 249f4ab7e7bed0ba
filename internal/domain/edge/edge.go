// Package edge fits a straight line to one side of a dynamometer card and
// derives the orientation predicates used by the shape rules.
//
// Goodness of fit is the mean squared residual of the least-squares line,
// so smaller is better. The thresholds below were tuned against that metric.
package edge

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Fit thresholds.
const (
	GoodFitThreshold    = 0.002
	FlatSlopeThreshold  = 0.1
	SteepSlopeThreshold = 0.5
)

const minFitPoints = 2

// Point is a normalized (displacement, load) pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Line is a least-squares fit of a dependent variable against an
// independent one together with its mean squared residual.
type Line struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Residual  float64 `json:"residual"`
}

// Edge is an ordered run of card points with forward (y on x) and inverse
// (x on y) line fits. An Edge owns its points.
type Edge struct {
	side    Side
	points  []Point
	forward Line
	inverse Line
	length  float64

	goodFit   bool
	vertical  bool
	flat      bool
	slopeUp   bool
	slopeDown bool
}

// New copies points into a new Edge and fits it.
func New(side Side, points []Point) (*Edge, error) {
	e := &Edge{side: side, points: make([]Point, len(points))}
	copy(e.points, points)
	if err := e.Fit(); err != nil {
		return nil, err
	}
	return e, nil
}

// Fit recomputes both line fits, the chord length and the cached
// predicates from the current points.
func (e *Edge) Fit() error {
	n := len(e.points)
	if n < minFitPoints {
		return fmt.Errorf("%s edge has %d points: %w", e.side, n, ErrInsufficientPoints)
	}

	xs, ys := e.columns()
	e.forward = fitLine(xs, ys)
	e.inverse = fitLine(ys, xs)

	first, last := e.points[0], e.points[n-1]
	e.length = math.Hypot(first.X-last.X, first.Y-last.Y)

	// NaN compares false, so an undefined fit never satisfies a predicate.
	e.goodFit = e.forward.Residual < GoodFitThreshold || e.inverse.Residual < GoodFitThreshold
	e.vertical = e.goodFit && math.Abs(e.inverse.Slope) < FlatSlopeThreshold
	e.flat = e.goodFit && math.Abs(e.forward.Slope) < FlatSlopeThreshold
	e.slopeUp = e.goodFit && e.forward.Slope > SteepSlopeThreshold
	e.slopeDown = e.goodFit && e.forward.Slope < -SteepSlopeThreshold
	return nil
}

func (e *Edge) columns() (xs, ys []float64) {
	xs = make([]float64, len(e.points))
	ys = make([]float64, len(e.points))
	for i, p := range e.points {
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}

// fitLine computes the ordinary least-squares line dep = slope*ind + intercept
// with the closed-form sums-of-products formulas. A zero denominator yields
// NaN or Inf coefficients, which callers treat as "no fit".
func fitLine(ind, dep []float64) Line {
	n := float64(len(ind))
	sx := floats.Sum(ind)
	sy := floats.Sum(dep)
	sxx := floats.Dot(ind, ind)
	sxy := floats.Dot(ind, dep)

	den := n*sxx - sx*sx
	slope := (n*sxy - sx*sy) / den
	intercept := (sxx*sy - sx*sxy) / den

	var sq float64
	for i := range ind {
		r := slope*ind[i] + intercept - dep[i]
		sq += r * r
	}
	return Line{Slope: slope, Intercept: intercept, Residual: sq / n}
}

// Side reports which side of the card this edge is.
func (e *Edge) Side() Side { return e.side }

// Points returns a copy of the edge's points.
func (e *Edge) Points() []Point {
	out := make([]Point, len(e.points))
	copy(out, e.points)
	return out
}

// Len returns the number of points on the edge.
func (e *Edge) Len() int { return len(e.points) }

// Forward is the fit of y as a function of x.
func (e *Edge) Forward() Line { return e.forward }

// Inverse is the fit of x as a function of y.
func (e *Edge) Inverse() Line { return e.inverse }

// Slope is the forward slope.
func (e *Edge) Slope() float64 { return e.forward.Slope }

// Intercept is the forward intercept.
func (e *Edge) Intercept() float64 { return e.forward.Intercept }

// SlopeInverse is the inverse slope.
func (e *Edge) SlopeInverse() float64 { return e.inverse.Slope }

// InterceptInverse is the inverse intercept.
func (e *Edge) InterceptInverse() float64 { return e.inverse.Intercept }

// Residual is the forward mean squared residual.
func (e *Edge) Residual() float64 { return e.forward.Residual }

// ResidualInverse is the inverse mean squared residual.
func (e *Edge) ResidualInverse() float64 { return e.inverse.Residual }

// Length is the chord distance between the first and last point.
func (e *Edge) Length() float64 { return e.length }

// IsGoodFit reports whether either direction fits within GoodFitThreshold.
func (e *Edge) IsGoodFit() bool { return e.goodFit }

// IsVertical reports a good fit whose inverse slope is nearly zero.
func (e *Edge) IsVertical() bool { return e.vertical }

// IsFlat reports a good fit whose forward slope is nearly zero.
func (e *Edge) IsFlat() bool { return e.flat }

// IsSlopeUp reports a good fit rising faster than SteepSlopeThreshold.
func (e *Edge) IsSlopeUp() bool { return e.slopeUp }

// IsSlopeDown reports a good fit falling faster than SteepSlopeThreshold.
func (e *Edge) IsSlopeDown() bool { return e.slopeDown }

// FirstHalf returns a fitted edge made of the leading points that lie within
// half the chord length of the first point.
func (e *Edge) FirstHalf() (*Edge, error) {
	if len(e.points) == 0 {
		return nil, fmt.Errorf("first half of empty %s edge: %w", e.side, ErrInsufficientPoints)
	}
	anchor := e.points[0]
	limit := e.length / 2
	var half []Point
	for _, p := range e.points {
		if math.Hypot(p.X-anchor.X, p.Y-anchor.Y) > limit {
			break
		}
		half = append(half, p)
	}
	h, err := New(e.side, half)
	if err != nil {
		return nil, fmt.Errorf("first half: %w", err)
	}
	return h, nil
}

// SecondHalf returns a fitted edge made of the trailing points that lie
// within half the chord length of the last point, in original order.
func (e *Edge) SecondHalf() (*Edge, error) {
	n := len(e.points)
	if n == 0 {
		return nil, fmt.Errorf("second half of empty %s edge: %w", e.side, ErrInsufficientPoints)
	}
	anchor := e.points[n-1]
	limit := e.length / 2
	start := n
	for i := n - 1; i >= 0; i-- {
		p := e.points[i]
		if math.Hypot(p.X-anchor.X, p.Y-anchor.Y) > limit {
			break
		}
		start = i
	}
	h, err := New(e.side, e.points[start:])
	if err != nil {
		return nil, fmt.Errorf("second half: %w", err)
	}
	return h, nil
}
