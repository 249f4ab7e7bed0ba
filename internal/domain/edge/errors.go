package edge

import "errors"

// Sentinel kinds for edge fitting errors.
var (
	ErrInsufficientPoints = errors.New("insufficient points to fit")
	ErrUnknownSide        = errors.New("unknown edge side")
)
