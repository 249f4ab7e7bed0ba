package model

import "errors"

// ErrFractionalPosition is returned when a wire sample position is not a
// finite integer that fits an int.
var ErrFractionalPosition = errors.New("sample position is not a whole degree in range")
