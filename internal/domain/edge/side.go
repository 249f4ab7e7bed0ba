package edge

import "fmt"

// Side names one of the four edges of a card.
type Side int

// Sides in traversal order, starting from the lower-left corner.
const (
	Left Side = iota
	Top
	Right
	Bottom
)

// Sides lists every side in traversal order.
var Sides = [...]Side{Left, Top, Right, Bottom}

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Top:
		return "top"
	case Right:
		return "right"
	case Bottom:
		return "bottom"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Side) UnmarshalText(b []byte) error {
	for _, side := range Sides {
		if side.String() == string(b) {
			*s = side
			return nil
		}
	}
	return fmt.Errorf("%q: %w", b, ErrUnknownSide)
}
