package shape

import "fmt"

// Label is the closed set of card shape categories. The zero value means
// the card has not been classified.
type Label int

// Shape labels.
const (
	Unclassified Label = iota
	FullPump
	TubingMovement
	FluidPound
	GasInterference
	FlowingWell
	PumpHitting
	BentBarrel
	WornPlunger
	WornStanding
	WornOrSplitBarrel
	FluidFriction
	DragFriction
	Other
)

var labelNames = [...]string{
	Unclassified:      "",
	FullPump:          "Full_Pump",
	TubingMovement:    "Tubing_Movement",
	FluidPound:        "Fluid_Pound",
	GasInterference:   "Gas_Interference",
	FlowingWell:       "Flowing_Well",
	PumpHitting:       "Pump_Hitting",
	BentBarrel:        "Bent_Barrel",
	WornPlunger:       "Worn_Plunger",
	WornStanding:      "Worn_Standing",
	WornOrSplitBarrel: "Worn_Or_Split_Barrel",
	FluidFriction:     "Fluid_Friction",
	DragFriction:      "Drag_Friction",
	Other:             "Other",
}

// Operator-facing pump status text.
var labelStatus = [...]string{
	Unclassified:      "",
	FullPump:          "full pump",
	TubingMovement:    "tubing movement",
	FluidPound:        "fluid pound",
	GasInterference:   "gas interference",
	FlowingWell:       "flowing well",
	PumpHitting:       "pump hitting",
	BentBarrel:        "bent barrel",
	WornPlunger:       "worn plunger",
	WornStanding:      "worn standing",
	WornOrSplitBarrel: "worn or split barrel",
	FluidFriction:     "fluid friction",
	DragFriction:      "drag friction",
	Other:             "other",
}

// Labels returns every classifiable label in enumeration order.
func Labels() []Label {
	out := make([]Label, 0, int(Other))
	for l := FullPump; l <= Other; l++ {
		out = append(out, l)
	}
	return out
}

// Valid reports whether l is one of the classifiable labels.
func (l Label) Valid() bool { return l >= FullPump && l <= Other }

// String returns the label name, e.g. "Full_Pump".
func (l Label) String() string {
	if l < Unclassified || l > Other {
		return fmt.Sprintf("Label(%d)", int(l))
	}
	return labelNames[l]
}

// Status returns the pump status text shown to operators, e.g. "full pump".
func (l Label) Status() string {
	if l < Unclassified || l > Other {
		return ""
	}
	return labelStatus[l]
}

// MarshalText implements encoding.TextMarshaler.
func (l Label) MarshalText() ([]byte, error) {
	if l != Unclassified && !l.Valid() {
		return nil, fmt.Errorf("label %d: %w", int(l), ErrUnknownLabel)
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Label) UnmarshalText(b []byte) error {
	parsed, err := ParseLabel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLabel maps a label name back to its Label. The empty string parses
// as Unclassified.
func ParseLabel(s string) (Label, error) {
	for i, name := range labelNames {
		if name == s {
			return Label(i), nil
		}
	}
	return Unclassified, fmt.Errorf("%q: %w", s, ErrUnknownLabel)
}
