package orgs

import "errors"

// ErrNotFound indicates the organization does not exist.
var ErrNotFound = errors.New("organization not found")
