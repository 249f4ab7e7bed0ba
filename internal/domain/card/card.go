// Package card splits a normalized stroke cycle into the four fitted edges
// of a dynamometer card.
package card

import (
	"fmt"
	"math"

	"github.com/dzhang123/DynaCard/internal/domain/cycle"
	"github.com/dzhang123/DynaCard/internal/domain/edge"
	"gonum.org/v1/gonum/floats"
)

// loadWeight tilts the corner projections so that the load axis dominates;
// extremes of x+2y and x-2y land on the four corners of a trapezoid.
const loadWeight = 2

// Card is an immutable set of four fitted edges.
type Card struct {
	edges    [4]*edge.Edge
	peakLoad float64
}

// Option applies a configuration option to a Card.
type Option func(*Card)

// WithPeakLoad records the largest raw load the card was built from.
func WithPeakLoad(load float64) Option {
	return func(c *Card) {
		c.peakLoad = load
	}
}

// New assembles a card from already fitted edges. Without WithPeakLoad the
// peak load is +Inf, so the card never reads as a low-load well.
func New(left, top, right, bottom *edge.Edge, opts ...Option) (*Card, error) {
	c := &Card{edges: [4]*edge.Edge{left, top, right, bottom}, peakLoad: math.Inf(1)}
	for i, e := range c.edges {
		if e == nil {
			return nil, fmt.Errorf("%s: %w", edge.Sides[i], ErrMissingEdge)
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Build normalizes a cycle, splits it into edges and records its peak load.
// Options run after the cycle's own peak is recorded, so WithPeakLoad can
// carry the peak of the whole stream the cycle was cut from.
func Build(c cycle.Cycle, opts ...Option) (*Card, error) {
	left, top, right, bottom, err := SplitIntoEdges(c.Positions(), c.Displacements(), c.Loads())
	if err != nil {
		return nil, err
	}
	return New(left, top, right, bottom, append([]Option{WithPeakLoad(c.PeakLoad())}, opts...)...)
}

// Left returns the left edge.
func (c *Card) Left() *edge.Edge { return c.edges[edge.Left] }

// Top returns the top edge.
func (c *Card) Top() *edge.Edge { return c.edges[edge.Top] }

// Right returns the right edge.
func (c *Card) Right() *edge.Edge { return c.edges[edge.Right] }

// Bottom returns the bottom edge.
func (c *Card) Bottom() *edge.Edge { return c.edges[edge.Bottom] }

// Edge returns the edge on side s.
func (c *Card) Edge(s edge.Side) *edge.Edge { return c.edges[s] }

// PeakLoad is the largest raw load of the source cycle.
func (c *Card) PeakLoad() float64 { return c.peakLoad }

// Points returns every point of the card in traversal order, starting at
// the lower-left corner.
func (c *Card) Points() []edge.Point {
	var n int
	for _, e := range c.edges {
		n += e.Len()
	}
	out := make([]edge.Point, 0, n)
	for _, e := range c.edges {
		out = append(out, e.Points()...)
	}
	return out
}

// Summaries returns the statistics of all four edges in traversal order.
func (c *Card) Summaries() []edge.Summary {
	out := make([]edge.Summary, len(c.edges))
	for i, e := range c.edges {
		out[i] = e.Summary()
	}
	return out
}

// Corners holds the indices of the four corner points of a card.
type Corners struct {
	LowerLeft  int
	UpperLeft  int
	UpperRight int
	LowerRight int
}

// FindCorners locates the corners as the extremes of two diagonal
// projections, u = x + 2y and v = x - 2y. Ties go to the lowest index.
func FindCorners(xs, ys []float64) Corners {
	u := make([]float64, len(xs))
	v := make([]float64, len(xs))
	for i := range xs {
		u[i] = xs[i] + loadWeight*ys[i]
		v[i] = xs[i] - loadWeight*ys[i]
	}
	return Corners{
		LowerLeft:  floats.MinIdx(u),
		UpperRight: floats.MaxIdx(u),
		UpperLeft:  floats.MinIdx(v),
		LowerRight: floats.MaxIdx(v),
	}
}

var cornerNames = [4]string{"lower-left", "upper-left", "upper-right", "lower-right"}

// ordered returns the corners in traversal order.
func (k Corners) ordered() [4]int {
	return [4]int{k.LowerLeft, k.UpperLeft, k.UpperRight, k.LowerRight}
}

// validate checks that the four corners are distinct. Corners may come in
// any order around the cycle; the walk then wraps and edges share points.
func (k Corners) validate() error {
	o := k.ordered()
	for i := 0; i < len(o); i++ {
		for j := i + 1; j < len(o); j++ {
			if o[i] == o[j] {
				return fmt.Errorf("%s and %s corners coincide at index %d: %w",
					cornerNames[i], cornerNames[j], o[i], ErrDegenerateCard)
			}
		}
	}
	return nil
}

// SplitIntoEdges normalizes displacements and loads, finds the four corners
// and walks the cycle from the lower-left corner, handing each run of
// points to the left, top, right and bottom edges in turn. When the corners
// follow the cycle in that order every input point lands on exactly one
// edge; otherwise the walk laps the cycle and edges overlap.
func SplitIntoEdges(positions []int, displacements, loads []float64) (left, top, right, bottom *edge.Edge, err error) {
	if len(positions) != len(displacements) || len(positions) != len(loads) {
		return nil, nil, nil, nil, fmt.Errorf("positions=%d displacements=%d loads=%d: %w",
			len(positions), len(displacements), len(loads), cycle.ErrMismatchedLength)
	}
	xs, err := cycle.Normalize(displacements)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("normalize displacement: %w", err)
	}
	ys, err := cycle.Normalize(loads)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("normalize load: %w", err)
	}

	n := len(xs)
	corners := FindCorners(xs, ys)
	if err := corners.validate(); err != nil {
		return nil, nil, nil, nil, err
	}

	var edges [4]*edge.Edge
	o := corners.ordered()
	for k, side := range edge.Sides {
		from, to := o[k], o[(k+1)%len(o)]
		var pts []edge.Point
		for i := from; i != to; i = (i + 1) % n {
			pts = append(pts, edge.Point{X: xs[i], Y: ys[i]})
		}
		e, err := edge.New(side, pts)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("split %s edge: %w", side, err)
		}
		edges[k] = e
	}
	return edges[0], edges[1], edges[2], edges[3], nil
}
