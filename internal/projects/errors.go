package projects

import "errors"

// ErrNotFound indicates the project does not exist.
var ErrNotFound = errors.New("project not found")

// ErrProjectLimit indicates the organization's tier does not allow another
// project.
var ErrProjectLimit = errors.New("project limit reached")
