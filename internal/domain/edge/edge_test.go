package edge_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/dzhang123/DynaCard/internal/domain/edge"
	. "github.com/smartystreets/goconvey/convey"
)

// segment returns n evenly spaced points from a to b inclusive.
func segment(a, b edge.Point, n int) []edge.Point {
	out := make([]edge.Point, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		out[i] = edge.Point{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)}
	}
	return out
}

func TestEdgeFit(t *testing.T) {
	Convey("Given points on the line y = 2x + 0.1", t, func() {
		pts := segment(edge.Point{X: 0, Y: 0.1}, edge.Point{X: 0.4, Y: 0.9}, 9)
		e, err := edge.New(edge.Left, pts)
		So(err, ShouldBeNil)

		Convey("Then the forward fit recovers slope and intercept", func() {
			So(e.Slope(), ShouldAlmostEqual, 2.0, 1e-9)
			So(e.Intercept(), ShouldAlmostEqual, 0.1, 1e-9)
			So(e.Residual(), ShouldAlmostEqual, 0.0, 1e-12)
		})

		Convey("And the inverse fit is x = 0.5y - 0.05", func() {
			So(e.SlopeInverse(), ShouldAlmostEqual, 0.5, 1e-9)
			So(e.InterceptInverse(), ShouldAlmostEqual, -0.05, 1e-9)
			So(e.ResidualInverse(), ShouldAlmostEqual, 0.0, 1e-12)
		})

		Convey("And the length is the chord between the end points", func() {
			So(e.Length(), ShouldAlmostEqual, math.Hypot(0.4, 0.8), 1e-12)
		})

		Convey("And it slopes up with a good fit", func() {
			So(e.IsGoodFit(), ShouldBeTrue)
			So(e.IsSlopeUp(), ShouldBeTrue)
			So(e.IsSlopeDown(), ShouldBeFalse)
			So(e.IsFlat(), ShouldBeFalse)
			So(e.IsVertical(), ShouldBeFalse)
		})

		Convey("And fitting again yields identical statistics", func() {
			before := e.Summary()
			So(e.Fit(), ShouldBeNil)
			So(e.Summary(), ShouldResemble, before)
			So(e.Forward(), ShouldResemble, edge.Line{Slope: *before.Slope, Intercept: e.Intercept(), Residual: *before.Residual})
		})
	})

	Convey("Given an exactly vertical run of points", t, func() {
		e, err := edge.New(edge.Left, segment(edge.Point{X: 0, Y: 0}, edge.Point{X: 0, Y: 1}, 11))
		So(err, ShouldBeNil)

		Convey("Then the forward fit is undefined but the edge is vertical", func() {
			So(math.IsNaN(e.Slope()), ShouldBeTrue)
			So(e.SlopeInverse(), ShouldEqual, 0.0)
			So(e.IsGoodFit(), ShouldBeTrue)
			So(e.IsVertical(), ShouldBeTrue)
			So(e.IsFlat(), ShouldBeFalse)
			So(e.IsSlopeUp(), ShouldBeFalse)
			So(e.IsSlopeDown(), ShouldBeFalse)
		})

		Convey("And its summary still encodes as JSON", func() {
			s := e.Summary()
			So(s.Slope, ShouldBeNil)
			_, err := json.Marshal(s)
			So(err, ShouldBeNil)
		})
	})

	Convey("Given a horizontal run of points", t, func() {
		e, err := edge.New(edge.Top, segment(edge.Point{X: 0, Y: 1}, edge.Point{X: 1, Y: 1}, 11))
		So(err, ShouldBeNil)

		Convey("Then it is flat and not vertical", func() {
			So(e.IsFlat(), ShouldBeTrue)
			So(e.IsVertical(), ShouldBeFalse)
			So(e.Length(), ShouldAlmostEqual, 1.0, 1e-12)
		})
	})

	Convey("Given a falling line", t, func() {
		e, err := edge.New(edge.Right, segment(edge.Point{X: 0.2, Y: 1}, edge.Point{X: 0.6, Y: 0}, 6))
		So(err, ShouldBeNil)

		Convey("Then it slopes down", func() {
			So(e.IsSlopeDown(), ShouldBeTrue)
			So(e.IsSlopeUp(), ShouldBeFalse)
		})
	})

	Convey("Given a scattered cloud of points", t, func() {
		pts := []edge.Point{{0, 0}, {0.5, 0.9}, {0.1, 0.6}, {0.9, 0.1}, {0.3, 0.3}, {0.7, 0.8}}
		e, err := edge.New(edge.Bottom, pts)
		So(err, ShouldBeNil)

		Convey("Then it is not a good fit and no orientation holds", func() {
			So(e.IsGoodFit(), ShouldBeFalse)
			So(e.IsVertical(), ShouldBeFalse)
			So(e.IsFlat(), ShouldBeFalse)
			So(e.IsSlopeUp(), ShouldBeFalse)
			So(e.IsSlopeDown(), ShouldBeFalse)
		})
	})

	Convey("Given fewer than two points", t, func() {
		Convey("Then fitting fails with ErrInsufficientPoints", func() {
			_, err := edge.New(edge.Top, []edge.Point{{0.5, 0.5}})
			So(errors.Is(err, edge.ErrInsufficientPoints), ShouldBeTrue)

			_, err = edge.New(edge.Top, nil)
			So(errors.Is(err, edge.ErrInsufficientPoints), ShouldBeTrue)
		})
	})

	Convey("Given points owned by the caller", t, func() {
		pts := segment(edge.Point{X: 0, Y: 0}, edge.Point{X: 1, Y: 0}, 3)
		e, err := edge.New(edge.Bottom, pts)
		So(err, ShouldBeNil)

		Convey("Then mutating the caller's slice does not change the edge", func() {
			pts[0].Y = 5
			So(e.Points()[0].Y, ShouldEqual, 0.0)
			So(e.Len(), ShouldEqual, 3)
		})
	})
}

func TestEdgeHalves(t *testing.T) {
	Convey("Given a top edge that is flat then drops", t, func() {
		pts := append(segment(edge.Point{X: 0, Y: 1}, edge.Point{X: 0.6, Y: 1}, 7),
			segment(edge.Point{X: 0.7, Y: 0.8}, edge.Point{X: 1, Y: 0.2}, 4)...)
		e, err := edge.New(edge.Top, pts)
		So(err, ShouldBeNil)
		So(e.IsFlat(), ShouldBeFalse)

		Convey("When taking the first half", func() {
			h, err := e.FirstHalf()
			So(err, ShouldBeNil)

			Convey("Then it keeps the leading points within half the chord", func() {
				limit := e.Length() / 2
				for _, p := range h.Points() {
					So(math.Hypot(p.X, p.Y-1), ShouldBeLessThanOrEqualTo, limit)
				}
				So(h.Points()[0], ShouldResemble, pts[0])
				So(h.Side(), ShouldEqual, edge.Top)
			})

			Convey("And the half is fitted and flat", func() {
				So(h.IsFlat(), ShouldBeTrue)
			})
		})

		Convey("When taking the second half", func() {
			h, err := e.SecondHalf()
			So(err, ShouldBeNil)

			Convey("Then it ends at the original last point in original order", func() {
				hp := h.Points()
				So(hp[len(hp)-1], ShouldResemble, pts[len(pts)-1])
				for i := 1; i < len(hp); i++ {
					So(hp[i].X, ShouldBeGreaterThan, hp[i-1].X)
				}
			})
		})
	})

	Convey("Given a two point edge", t, func() {
		e, err := edge.New(edge.Bottom, []edge.Point{{0, 0}, {1, 0}})
		So(err, ShouldBeNil)

		Convey("Then its halves have a single point and cannot be fitted", func() {
			_, err := e.FirstHalf()
			So(errors.Is(err, edge.ErrInsufficientPoints), ShouldBeTrue)
			_, err = e.SecondHalf()
			So(errors.Is(err, edge.ErrInsufficientPoints), ShouldBeTrue)
		})
	})
}

func TestSide(t *testing.T) {
	Convey("Given the four sides", t, func() {
		So(edge.Left.String(), ShouldEqual, "left")
		So(edge.Top.String(), ShouldEqual, "top")
		So(edge.Right.String(), ShouldEqual, "right")
		So(edge.Bottom.String(), ShouldEqual, "bottom")
		So(edge.Side(9).String(), ShouldEqual, "side(9)")
		So(len(edge.Sides), ShouldEqual, 4)

		b, err := json.Marshal(edge.Right)
		So(err, ShouldBeNil)
		So(string(b), ShouldEqual, `"right"`)

		var s edge.Side
		So(json.Unmarshal([]byte(`"bottom"`), &s), ShouldBeNil)
		So(s, ShouldEqual, edge.Bottom)

		err = json.Unmarshal([]byte(`"middle"`), &s)
		So(errors.Is(err, edge.ErrUnknownSide), ShouldBeTrue)
	})
}
