package shape

import "errors"

// ErrUnknownLabel is returned when a label name is not part of the enumeration.
var ErrUnknownLabel = errors.New("unknown shape label")
