// Package cardgen draws synthetic dynamometer cards. It traces reference
// polygons at a fixed number of samples per revolution and scales them into
// raw displacement and load units, producing sample streams laid out like
// recorder files: positions stepping from 0 towards 360 degrees, repeated
// for every revolution and closed with a final 360 degree sample.
package cardgen

import (
	"math"
	"math/rand/v2"

	"github.com/dzhang123/DynaCard/internal/domain/cycle"
)

// Generator defaults.
const (
	DefaultSamplesPerRevolution = 72
	DefaultRevolutions          = 1
	DefaultStroke               = 120.0
	DefaultMinLoad              = 2000.0
	DefaultMaxLoad              = 12000.0

	minSamplesPerRevolution = 8
	maxSamplesPerRevolution = cycle.EndPosition
)

// Generator produces sample streams for shapes. It is not safe for
// concurrent use when noise is enabled.
type Generator struct {
	samplesPerRevolution int
	revolutions          int
	stroke               float64
	minLoad              float64
	maxLoad              float64
	noise                float64
	rng                  *rand.Rand
}

// Option applies a configuration option to a Generator.
type Option func(*Generator)

// WithSamplesPerRevolution sets how many samples one revolution holds.
// Values outside [8, 360] are ignored so that every non-first sample of a
// revolution has a position above 0.
func WithSamplesPerRevolution(n int) Option {
	return func(g *Generator) {
		if n >= minSamplesPerRevolution && n <= maxSamplesPerRevolution {
			g.samplesPerRevolution = n
		}
	}
}

// WithRevolutions sets how many times the shape is traced.
func WithRevolutions(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.revolutions = n
		}
	}
}

// WithStroke sets the displacement of a full stroke.
func WithStroke(stroke float64) Option {
	return func(g *Generator) {
		if stroke > 0 {
			g.stroke = stroke
		}
	}
}

// WithLoadRange sets the raw load at the bottom and top of the unit shape.
// Equal bounds produce a flat load trace.
func WithLoadRange(minLoad, maxLoad float64) Option {
	return func(g *Generator) {
		if maxLoad >= minLoad {
			g.minLoad, g.maxLoad = minLoad, maxLoad
		}
	}
}

// WithNoise adds uniform load jitter of the given amplitude, as a fraction
// of the load range, drawn from a generator seeded with seed.
func WithNoise(amplitude float64, seed uint64) Option {
	return func(g *Generator) {
		if amplitude > 0 {
			g.noise = amplitude
			g.rng = rand.New(rand.NewPCG(seed, seed))
		}
	}
}

// New creates a Generator with the given options.
func New(opts ...Option) *Generator {
	g := &Generator{
		samplesPerRevolution: DefaultSamplesPerRevolution,
		revolutions:          DefaultRevolutions,
		stroke:               DefaultStroke,
		minLoad:              DefaultMinLoad,
		maxLoad:              DefaultMaxLoad,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SamplesPerRevolution reports the configured samples per revolution.
func (g *Generator) SamplesPerRevolution() int { return g.samplesPerRevolution }

// Samples returns the raw sample stream for shape s.
func (g *Generator) Samples(s Shape) []cycle.Sample {
	trace := Trace(s, g.samplesPerRevolution)
	n := len(trace)
	out := make([]cycle.Sample, 0, n*g.revolutions+1)
	for r := 0; r < g.revolutions; r++ {
		for i, v := range trace {
			out = append(out, g.sample(i*cycle.EndPosition/n, v))
		}
	}
	if n > 0 {
		out = append(out, g.sample(cycle.EndPosition, trace[0]))
	}
	return out
}

func (g *Generator) sample(position int, v Vertex) cycle.Sample {
	span := g.maxLoad - g.minLoad
	y := v.Y
	if g.rng != nil {
		y += (g.rng.Float64()*2 - 1) * g.noise
	}
	return cycle.Sample{
		Position:     position,
		Displacement: v.X * g.stroke,
		Load:         g.minLoad + y*span,
	}
}

type segment struct {
	from, to Vertex
	length   float64
}

// Trace places n points at equal arc-length steps along the closed outline
// of s, starting on its first vertex.
func Trace(s Shape, n int) []Vertex {
	if len(s.Vertices) == 0 || n <= 0 {
		return nil
	}
	segs := make([]segment, len(s.Vertices))
	var perimeter float64
	for i, a := range s.Vertices {
		b := s.Vertices[(i+1)%len(s.Vertices)]
		l := math.Hypot(b.X-a.X, b.Y-a.Y)
		segs[i] = segment{from: a, to: b, length: l}
		perimeter += l
	}

	out := make([]Vertex, n)
	for i := range out {
		d := float64(i) * perimeter / float64(n)
		for k, sg := range segs {
			if d <= sg.length || k == len(segs)-1 {
				var t float64
				if sg.length > 0 {
					t = math.Min(d/sg.length, 1)
				}
				out[i] = Vertex{
					X: sg.from.X + t*(sg.to.X-sg.from.X),
					Y: sg.from.Y + t*(sg.to.Y-sg.from.Y),
				}
				break
			}
			d -= sg.length
		}
	}
	return out
}
