// Package shape labels dynamometer cards. A Classifier extracts a cycle from
// raw samples, short-circuits wells that never carry a real load and
// otherwise runs the card's edges through an ordered rule table.
package shape

import (
	"fmt"

	"github.com/dzhang123/DynaCard/internal/domain/card"
	"github.com/dzhang123/DynaCard/internal/domain/cycle"
)

// DefaultMinAcceptableWeight is the peak load below which a well is
// reported as flowing.
const DefaultMinAcceptableWeight = 10.0

// Classifier is immutable and safe for concurrent use.
type Classifier struct {
	minAcceptableWeight float64
}

// Option applies a configuration option to a Classifier.
type Option func(*Classifier)

// WithMinAcceptableWeight sets the flowing well threshold.
func WithMinAcceptableWeight(w float64) Option {
	return func(c *Classifier) {
		c.minAcceptableWeight = w
	}
}

// New creates a Classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{minAcceptableWeight: DefaultMinAcceptableWeight}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MinAcceptableWeight returns the flowing well threshold.
func (c *Classifier) MinAcceptableWeight() float64 { return c.minAcceptableWeight }

// Outcome is the result of classifying one sample stream. Card is nil when
// the well was recognized as flowing before any geometry was built.
type Outcome struct {
	Label    Label
	Card     *card.Card
	PeakLoad float64
}

// Classify labels a raw sample stream. The flowing well check compares the
// peak load of the whole stream, before any cycle is extracted or
// normalized, so a dead well is reported as flowing even when its trace has
// no 0 degree anchor or a constant load.
func (c *Classifier) Classify(samples []cycle.Sample) (Outcome, error) {
	peak := cycle.MaxLoad(samples)
	if len(samples) > 0 && peak < c.minAcceptableWeight {
		return Outcome{Label: FlowingWell, PeakLoad: peak}, nil
	}
	cy, err := cycle.Extract(samples)
	if err != nil {
		return Outcome{PeakLoad: peak}, err
	}
	return c.classify(cy, peak)
}

// ClassifyCycle labels an already extracted cycle, using the cycle's own
// peak load for the flowing well check.
func (c *Classifier) ClassifyCycle(cy cycle.Cycle) (Outcome, error) {
	peak := cy.PeakLoad()
	if peak < c.minAcceptableWeight {
		return Outcome{Label: FlowingWell, PeakLoad: peak}, nil
	}
	return c.classify(cy, peak)
}

func (c *Classifier) classify(cy cycle.Cycle, peak float64) (Outcome, error) {
	cd, err := card.Build(cy, card.WithPeakLoad(peak))
	if err != nil {
		return Outcome{PeakLoad: peak}, fmt.Errorf("build card: %w", err)
	}
	return Outcome{Label: c.ClassifyCard(cd), Card: cd, PeakLoad: peak}, nil
}

// ClassifyCard labels a card that was built elsewhere.
func (c *Classifier) ClassifyCard(cd *card.Card) Label {
	if cd.PeakLoad() < c.minAcceptableWeight {
		return FlowingWell
	}
	return Match(cd)
}
