// Package cycle extracts one complete stroke cycle from a raw dynamometer
// sample stream and rescales its displacement and load values to [0,1].
package cycle

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Revolution bounds in degrees of crank angle.
const (
	StartPosition = 0
	EndPosition   = 360
)

// minCycleSamples is the smallest sample count that still forms a curve.
const minCycleSamples = 2

// Sample is one raw reading: crank angle in degrees, stroke displacement and
// rod-string load in the units the recorder produced.
type Sample struct {
	Position     int
	Displacement float64
	Load         float64
}

// Cycle is a contiguous run of samples covering exactly one revolution.
type Cycle []Sample

// Extract returns the first complete revolution found in samples.
//
// The cycle starts at the first sample positioned at 0 degrees and ends just
// before the next 0 degree sample. Without a second 0 the cycle runs through
// the last 360 degree sample, or to the end of the stream when there is none.
func Extract(samples []Sample) (Cycle, error) {
	start := -1
	for i, s := range samples {
		if s.Position == StartPosition {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("no sample at %d degrees in %d samples: %w", StartPosition, len(samples), ErrNoCycleFound)
	}

	end := len(samples)
	if next := indexFrom(samples, start+1, StartPosition); next >= 0 {
		end = next
	} else if last := lastIndexFrom(samples, start+1, EndPosition); last >= 0 {
		end = last + 1
	}

	if end-start < minCycleSamples {
		return nil, fmt.Errorf("cycle at index %d has %d samples: %w", start, end-start, ErrNoCycleFound)
	}

	out := make(Cycle, end-start)
	copy(out, samples[start:end])
	return out, nil
}

func indexFrom(samples []Sample, from, position int) int {
	for i := from; i < len(samples); i++ {
		if samples[i].Position == position {
			return i
		}
	}
	return -1
}

func lastIndexFrom(samples []Sample, from, position int) int {
	for i := len(samples) - 1; i >= from; i-- {
		if samples[i].Position == position {
			return i
		}
	}
	return -1
}

// Positions returns the crank angles of the cycle in order.
func (c Cycle) Positions() []int {
	out := make([]int, len(c))
	for i, s := range c {
		out[i] = s.Position
	}
	return out
}

// Displacements returns the raw displacement column.
func (c Cycle) Displacements() []float64 {
	out := make([]float64, len(c))
	for i, s := range c {
		out[i] = s.Displacement
	}
	return out
}

// Loads returns the raw load column.
func (c Cycle) Loads() []float64 {
	out := make([]float64, len(c))
	for i, s := range c {
		out[i] = s.Load
	}
	return out
}

// PeakLoad returns the largest raw load in the cycle, or 0 for an empty cycle.
func (c Cycle) PeakLoad() float64 { return MaxLoad(c) }

// MaxLoad returns the largest raw load across samples, or 0 when there are
// none.
func MaxLoad(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	return floats.Max(Cycle(samples).Loads())
}

// Normalize linearly rescales values so the minimum maps to 0 and the
// maximum to 1. It fails with ErrDegenerateRange when all values are equal
// or there are no values at all.
func Normalize(values []float64) ([]float64, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("empty sequence: %w", ErrDegenerateRange)
	}
	lo, hi := floats.Min(values), floats.Max(values)
	span := hi - lo
	if span == 0 {
		return nil, fmt.Errorf("all %d values equal %g: %w", len(values), lo, ErrDegenerateRange)
	}

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - lo) / span
	}
	return out, nil
}

// Columns splits parallel position, displacement and load sequences into
// samples. All three must have the same length.
func Columns(positions []int, displacements, loads []float64) ([]Sample, error) {
	if len(positions) != len(displacements) || len(positions) != len(loads) {
		return nil, fmt.Errorf("positions=%d displacements=%d loads=%d: %w",
			len(positions), len(displacements), len(loads), ErrMismatchedLength)
	}
	out := make([]Sample, len(positions))
	for i := range positions {
		out[i] = Sample{Position: positions[i], Displacement: displacements[i], Load: loads[i]}
	}
	return out, nil
}
