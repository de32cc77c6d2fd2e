package dist

import "errors"

// Sentinel kinds for distribution errors.
var (
	ErrInvalidParams = errors.New("invalid distribution parameters")
	ErrEmptySample   = errors.New("empty sample")
	ErrFitFailed     = errors.New("distribution fit failed")
)
