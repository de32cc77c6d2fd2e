package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrFilterNotFound = errors.New("filter not found")
)
