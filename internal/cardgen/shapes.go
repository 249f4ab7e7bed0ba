package cardgen

// Vertex is a polygon corner in unit card coordinates: X is the fraction of
// the stroke, Y the fraction of the load range.
type Vertex struct {
	X float64
	Y float64
}

// Shape is a closed polygon traced clockwise from its lower-left corner,
// named after the pump condition it is drawn to resemble.
type Shape struct {
	Name     string
	Vertices []Vertex
}

// Reference shapes. Each one classifies as its Name when generated with at
// least DefaultSamplesPerRevolution samples.
var (
	FullPump = Shape{Name: "Full_Pump", Vertices: []Vertex{
		{0, 0}, {0, 1}, {1, 1}, {1, 0},
	}}
	TubingMovement = Shape{Name: "Tubing_Movement", Vertices: []Vertex{
		{0, 0}, {0.3, 1}, {1, 1}, {0.7, 0},
	}}
	FluidPound = Shape{Name: "Fluid_Pound", Vertices: []Vertex{
		{0, 0}, {0, 1}, {1, 1}, {0.5, 0.85}, {0.45, 0},
	}}
	GasInterference = Shape{Name: "Gas_Interference", Vertices: []Vertex{
		{0, 0}, {0, 1}, {1, 1}, {0.5, 0},
	}}
	PumpHitting = Shape{Name: "Pump_Hitting", Vertices: []Vertex{
		{0, 0}, {0, 1}, {0.7, 1}, {0.85, 0.75}, {1, 1}, {1, 0},
	}}
	BentBarrel = Shape{Name: "Bent_Barrel", Vertices: []Vertex{
		{0, 0.2}, {0, 1}, {1, 0.8}, {1, 0},
	}}
	WornPlunger = Shape{Name: "Worn_Plunger", Vertices: []Vertex{
		{0, 0}, {0.1, 0.5}, {0.35, 1}, {0.8, 1}, {0.95, 0.7}, {1, 0},
	}}
	// WornStanding is WornPlunger turned through 180 degrees.
	WornStanding = Shape{Name: "Worn_Standing", Vertices: []Vertex{
		{0.2, 0}, {0.05, 0.3}, {0, 1}, {1, 1}, {0.9, 0.5}, {0.65, 0},
	}}
	WornOrSplitBarrel = Shape{Name: "Worn_Or_Split_Barrel", Vertices: []Vertex{
		{0, 0}, {0, 1}, {0.9, 0.8}, {1, 0},
	}}
)

// Shapes returns the reference shapes in classifier rule order.
func Shapes() []Shape {
	return []Shape{
		FullPump,
		TubingMovement,
		FluidPound,
		GasInterference,
		PumpHitting,
		BentBarrel,
		WornPlunger,
		WornStanding,
		WornOrSplitBarrel,
	}
}

// Lookup finds a reference shape by name.
func Lookup(name string) (Shape, bool) {
	for _, s := range Shapes() {
		if s.Name == name {
			return s, true
		}
	}
	return Shape{}, false
}
