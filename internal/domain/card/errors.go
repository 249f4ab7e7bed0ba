package card

import "errors"

// Sentinel kinds for card construction errors.
var (
	ErrDegenerateCard = errors.New("degenerate card")
	ErrMissingEdge    = errors.New("missing card edge")
)
