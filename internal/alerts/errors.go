package alerts

import "errors"

var (
	// ErrNotFound indicates the rule or event does not exist.
	ErrNotFound = errors.New("alert not found")
	// ErrInvalidInput indicates rule fields failed validation.
	ErrInvalidInput = errors.New("invalid alert rule")
)
