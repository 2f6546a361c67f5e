package runs

import "errors"

var (
	// ErrNotFound is returned when a prompt run does not exist.
	ErrNotFound = errors.New("prompt run not found")
)
