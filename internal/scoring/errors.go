package scoring

import "errors"

// ErrNotFound indicates the score does not exist.
var ErrNotFound = errors.New("score not found")
