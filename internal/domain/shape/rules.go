package shape

import (
	"github.com/dzhang123/DynaCard/internal/domain/card"
	"github.com/dzhang123/DynaCard/internal/domain/edge"
)

// Chord length and residual limits used by the rule table.
const (
	fluidPoundResidual = 0.015
	shortBottomLength  = 0.8
	longEdgeLength     = 0.8
	wornEdgeLength     = 0.9
	dragSideLength     = 0.7
)

// Rule is one row of the ordered decision table.
type Rule struct {
	Label Label
	Match func(c *card.Card) bool
}

var rules = []Rule{
	{FullPump, func(c *card.Card) bool {
		return c.Left().IsVertical() && c.Right().IsVertical() && c.Top().IsFlat() && c.Bottom().IsFlat()
	}},
	{TubingMovement, func(c *card.Card) bool {
		return c.Top().IsFlat() && c.Bottom().IsFlat() &&
			c.Left().IsSlopeUp() && c.Left().IsGoodFit() &&
			c.Right().IsSlopeUp() && c.Right().IsGoodFit()
	}},
	{FluidPound, func(c *card.Card) bool {
		return c.Top().IsFlat() && c.Bottom().IsFlat() && c.Left().IsVertical() &&
			c.Bottom().Length() < shortBottomLength && c.Right().Residual() > fluidPoundResidual
	}},
	{GasInterference, func(c *card.Card) bool {
		return c.Top().IsFlat() && c.Left().IsVertical() && c.Bottom().IsFlat() &&
			c.Bottom().Length() < shortBottomLength
	}},
	{PumpHitting, func(c *card.Card) bool {
		return c.Left().IsVertical() && c.Right().IsVertical() &&
			firstHalfFlat(c.Top()) && firstHalfFlat(c.Bottom())
	}},
	{BentBarrel, func(c *card.Card) bool {
		return c.Left().IsVertical() && c.Right().IsVertical() &&
			c.Bottom().Length() > longEdgeLength && c.Top().Length() > longEdgeLength
	}},
	{WornPlunger, func(c *card.Card) bool {
		return c.Bottom().IsFlat() && !c.Left().IsVertical() && !c.Right().IsVertical() &&
			c.Top().Length() < wornEdgeLength
	}},
	{WornStanding, func(c *card.Card) bool {
		return c.Top().IsFlat() && !c.Left().IsVertical() && !c.Right().IsVertical() &&
			c.Bottom().Length() < wornEdgeLength
	}},
	{WornOrSplitBarrel, func(c *card.Card) bool {
		return c.Bottom().IsFlat() && c.Left().IsVertical()
	}},
	{FluidFriction, func(c *card.Card) bool {
		return c.Right().IsVertical() && c.Left().IsVertical()
	}},
	{DragFriction, func(c *card.Card) bool {
		return c.Right().Length() > dragSideLength && c.Left().Length() > dragSideLength
	}},
}

// firstHalfFlat is false when the half holds too few points to fit.
func firstHalfFlat(e *edge.Edge) bool {
	h, err := e.FirstHalf()
	return err == nil && h.IsFlat()
}

// Rules returns a copy of the decision table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Match walks the decision table and returns the label of the first rule
// the card satisfies, or Other when none does.
func Match(c *card.Card) Label {
	for _, r := range rules {
		if r.Match(c) {
			return r.Label
		}
	}
	return Other
}
