package cycle

import "errors"

// Sentinel kinds for cycle extraction and normalization errors.
var (
	ErrNoCycleFound     = errors.New("no stroke cycle found")
	ErrDegenerateRange  = errors.New("degenerate value range")
	ErrMismatchedLength = errors.New("mismatched sequence lengths")
)
