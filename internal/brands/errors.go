package brands

import "errors"

// ErrNotFound indicates the brand or competitor does not exist.
var ErrNotFound = errors.New("brand not found")

// ErrInvalidInput indicates a validation failure on caller-supplied fields.
var ErrInvalidInput = errors.New("invalid brand input")
