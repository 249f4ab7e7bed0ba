package model

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/dzhang123/DynaCard/internal/domain/cycle"
)

// Samples travel as JSON arrays of [position, displacement, load] triples.
type Samples []cycle.Sample

// MarshalJSON implements json.Marshaler.
func (s Samples) MarshalJSON() ([]byte, error) {
	rows := make([][3]float64, len(s))
	for i, v := range s {
		rows[i] = [3]float64{float64(v.Position), v.Displacement, v.Load}
	}
	return json.Marshal(rows)
}

// UnmarshalJSON implements json.Unmarshaler. Positions must be whole degrees.
func (s *Samples) UnmarshalJSON(b []byte) error {
	var rows [][3]float64
	if err := json.Unmarshal(b, &rows); err != nil {
		return fmt.Errorf("samples: %w", err)
	}
	out := make(Samples, len(rows))
	for i, r := range rows {
		pos, err := WholeDegrees(r[0])
		if err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
		out[i] = cycle.Sample{Position: pos, Displacement: r[1], Load: r[2]}
	}
	*s = out
	return nil
}

// WholeDegrees converts a position read off the wire to an int. Fractional,
// non-finite and out of range values fail with ErrFractionalPosition.
func WholeDegrees(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) ||
		v < float64(math.MinInt) || v >= float64(math.MaxInt) {
		return 0, fmt.Errorf("position %g: %w", v, ErrFractionalPosition)
	}
	return int(v), nil
}
