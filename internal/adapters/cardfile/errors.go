package cardfile

import "errors"

// ErrMalformedLine is returned for a data line that is not three numbers.
var ErrMalformedLine = errors.New("malformed card line")
