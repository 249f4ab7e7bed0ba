package shape_test

import (
	"testing"

	"github.com/dzhang123/DynaCard/internal/domain/card"
	"github.com/dzhang123/DynaCard/internal/domain/edge"
	"github.com/dzhang123/DynaCard/internal/domain/shape"
	. "github.com/smartystreets/goconvey/convey"
)

const pointsPerSegment = 11

func pt(x, y float64) edge.Point { return edge.Point{X: x, Y: y} }

// segment returns n evenly spaced points from a to b inclusive.
func segment(a, b edge.Point, n int) []edge.Point {
	pts := make([]edge.Point, n)
	for i := range pts {
		t := float64(i) / float64(n-1)
		pts[i] = edge.Point{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)}
	}
	return pts
}

// path joins segments through the given vertices.
func path(vs ...edge.Point) []edge.Point {
	var out []edge.Point
	for i := 0; i+1 < len(vs); i++ {
		seg := segment(vs[i], vs[i+1], pointsPerSegment)
		if i > 0 {
			seg = seg[1:]
		}
		out = append(out, seg...)
	}
	return out
}

func mustCard(left, top, right, bottom []edge.Point) *card.Card {
	edges := make([]*edge.Edge, 0, 4)
	for i, pts := range [][]edge.Point{left, top, right, bottom} {
		e, err := edge.New(edge.Sides[i], pts)
		So(err, ShouldBeNil)
		edges = append(edges, e)
	}
	c, err := card.New(edges[0], edges[1], edges[2], edges[3])
	So(err, ShouldBeNil)
	return c
}

func TestMatch(t *testing.T) {
	cases := []struct {
		name                     string
		left, top, right, bottom []edge.Point
		want                     shape.Label
	}{
		{
			name:   "square with short top and bottom",
			left:   path(pt(0, 0), pt(0, 1)),
			top:    path(pt(0.1, 1), pt(0.7, 1)),
			right:  path(pt(1, 1), pt(1, 0)),
			bottom: path(pt(0.7, 0), pt(0.1, 0)),
			want:   shape.FullPump,
		},
		{
			name:   "steep parallel sides",
			left:   path(pt(0, 0), pt(0.5, 1)),
			top:    path(pt(0.5, 1), pt(1, 1)),
			right:  path(pt(1, 1), pt(0.5, 0)),
			bottom: path(pt(0.5, 0), pt(0, 0)),
			want:   shape.TubingMovement,
		},
		{
			name:   "late sharp drop on the downstroke",
			left:   path(pt(0, 0), pt(0, 1)),
			top:    path(pt(0, 1), pt(1, 1)),
			right:  path(pt(1, 1), pt(0.5, 0.85), pt(0.45, 0)),
			bottom: path(pt(0.45, 0), pt(0, 0)),
			want:   shape.FluidPound,
		},
		{
			name:   "gradual straight unloading",
			left:   path(pt(0, 0), pt(0, 1)),
			top:    path(pt(0, 1), pt(1, 1)),
			right:  path(pt(1, 1), pt(0.5, 0)),
			bottom: path(pt(0.5, 0), pt(0, 0)),
			want:   shape.GasInterference,
		},
		{
			name:   "load dip at the top of the stroke",
			left:   path(pt(0, 0), pt(0, 1)),
			top:    path(pt(0, 1), pt(0.7, 1), pt(0.85, 0.75), pt(1, 1)),
			right:  path(pt(1, 1), pt(1, 0)),
			bottom: path(pt(1, 0), pt(0, 0)),
			want:   shape.PumpHitting,
		},
		{
			name:   "tilted top and bottom",
			left:   path(pt(0, 0.2), pt(0, 1)),
			top:    path(pt(0, 1), pt(1, 0.8)),
			right:  path(pt(1, 0.8), pt(1, 0)),
			bottom: path(pt(1, 0), pt(0, 0.2)),
			want:   shape.BentBarrel,
		},
		{
			name:   "rounded sides and short top",
			left:   path(pt(0, 0), pt(0.1, 0.5), pt(0.35, 1)),
			top:    path(pt(0.35, 1), pt(0.8, 1)),
			right:  path(pt(0.8, 1), pt(0.95, 0.7), pt(1, 0)),
			bottom: path(pt(1, 0), pt(0, 0)),
			want:   shape.WornPlunger,
		},
		{
			name:   "rounded sides and short bottom",
			left:   path(pt(0.2, 0), pt(0.05, 0.3), pt(0, 1)),
			top:    path(pt(0, 1), pt(1, 1)),
			right:  path(pt(1, 1), pt(0.9, 0.5), pt(0.65, 0)),
			bottom: path(pt(0.65, 0), pt(0.2, 0)),
			want:   shape.WornStanding,
		},
		{
			name:   "sloped top and leaning right side",
			left:   path(pt(0, 0), pt(0, 1)),
			top:    path(pt(0, 1), pt(0.9, 0.8)),
			right:  path(pt(0.9, 0.8), pt(1, 0)),
			bottom: path(pt(1, 0), pt(0, 0)),
			want:   shape.WornOrSplitBarrel,
		},
		{
			name:   "vertical sides with short tilted top",
			left:   path(pt(0, 0), pt(0, 1)),
			top:    path(pt(0, 1), pt(0.5, 0.7)),
			right:  path(pt(1, 1), pt(1, 0)),
			bottom: path(pt(1, 0), pt(0.5, 0.3)),
			want:   shape.FluidFriction,
		},
		{
			name:   "long leaning sides",
			left:   path(pt(0, 0), pt(0.1, 0.6), pt(0.4, 1)),
			top:    path(pt(0.4, 1), pt(1, 0.6)),
			right:  path(pt(1, 1), pt(0.9, 0.4), pt(0.6, 0)),
			bottom: path(pt(0.6, 0), pt(0, 0.3)),
			want:   shape.DragFriction,
		},
		{
			name:   "small diamond",
			left:   path(pt(0, 0), pt(0.2, 0.2)),
			top:    path(pt(0.2, 0.2), pt(0.4, 0.1)),
			right:  path(pt(0.4, 0.1), pt(0.2, -0.1)),
			bottom: path(pt(0.2, -0.1), pt(0, 0)),
			want:   shape.Other,
		},
	}

	Convey("Given hand built cards", t, func() {
		for _, tc := range cases {
			Convey("A "+tc.name+" is "+tc.want.String(), func() {
				c := mustCard(tc.left, tc.top, tc.right, tc.bottom)
				So(shape.Match(c), ShouldEqual, tc.want)
			})
		}
	})
}

func TestRuleOrder(t *testing.T) {
	Convey("Given a card that satisfies both the full pump and fluid friction rules", t, func() {
		c := mustCard(
			path(pt(0, 0), pt(0, 1)),
			path(pt(0, 1), pt(1, 1)),
			path(pt(1, 1), pt(1, 0)),
			path(pt(1, 0), pt(0, 0)),
		)
		So(c.Left().IsVertical() && c.Right().IsVertical(), ShouldBeTrue)

		Convey("The earlier rule wins", func() {
			So(shape.Match(c), ShouldEqual, shape.FullPump)
		})

		Convey("Matching is deterministic", func() {
			So(shape.Match(c), ShouldEqual, shape.Match(c))
		})
	})

	Convey("The rule table lists every geometric label once, in order", t, func() {
		rules := shape.Rules()
		So(rules, ShouldHaveLength, 11)
		So(rules[0].Label, ShouldEqual, shape.FullPump)
		So(rules[len(rules)-1].Label, ShouldEqual, shape.DragFriction)

		seen := map[shape.Label]bool{}
		for _, r := range rules {
			So(seen[r.Label], ShouldBeFalse)
			So(r.Label, ShouldNotEqual, shape.FlowingWell)
			seen[r.Label] = true
		}
	})
}

func TestPumpHittingNeedsFittableHalves(t *testing.T) {
	Convey("Given vertical sides and a two point bottom", t, func() {
		c := mustCard(
			path(pt(0, 0), pt(0, 1)),
			path(pt(0, 1), pt(0.7, 1), pt(0.85, 0.75), pt(1, 1)),
			path(pt(1, 1), pt(1, 0)),
			[]edge.Point{pt(1, 0), pt(0, 0)},
		)

		Convey("An unfittable first half does not count as flat", func() {
			_, err := c.Bottom().FirstHalf()
			So(err, ShouldNotBeNil)
			So(shape.Match(c), ShouldNotEqual, shape.PumpHitting)
		})
	})
}
