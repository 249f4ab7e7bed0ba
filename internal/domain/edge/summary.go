package edge

import "math"

// Summary is a flat, serializable view of a fitted edge.
type Summary struct {
	Side            Side     `json:"side"`
	Points          int      `json:"points"`
	Slope           *float64 `json:"slope"`
	SlopeInverse    *float64 `json:"slope_inverse"`
	Residual        *float64 `json:"residual"`
	ResidualInverse *float64 `json:"residual_inverse"`
	Length          float64  `json:"length"`
	GoodFit         bool     `json:"good_fit"`
	Vertical        bool     `json:"vertical"`
	Flat            bool     `json:"flat"`
	SlopeUp         bool     `json:"slope_up"`
	SlopeDown       bool     `json:"slope_down"`
}

// Summary reports the edge statistics. Undefined (NaN or infinite)
// coefficients are left nil so the value always encodes as JSON.
func (e *Edge) Summary() Summary {
	return Summary{
		Side:            e.side,
		Points:          len(e.points),
		Slope:           finite(e.forward.Slope),
		SlopeInverse:    finite(e.inverse.Slope),
		Residual:        finite(e.forward.Residual),
		ResidualInverse: finite(e.inverse.Residual),
		Length:          e.length,
		GoodFit:         e.goodFit,
		Vertical:        e.vertical,
		Flat:            e.flat,
		SlopeUp:         e.slopeUp,
		SlopeDown:       e.slopeDown,
	}
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
