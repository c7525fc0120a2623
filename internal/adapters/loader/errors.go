package loader

import "errors"

// Loader errors.
var (
	ErrMissingColumn   = errors.New("missing required column")
	ErrMalformedRecord = errors.New("malformed record")
	ErrSinkClosed      = errors.New("record sink closed")
)
