package app

import (
	"errors"

	"github.com/kzero/skillpoints/internal/adapters/repository"
)

// Sentinel kinds for request handling.
var (
	ErrMalformedRequest = errors.New("malformed request")
)

func isFilterNotFound(err error) bool {
	return errors.Is(err, repository.ErrFilterNotFound)
}
