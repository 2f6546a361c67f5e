package audit

import "errors"

// ErrNotFound indicates the audit entry does not exist.
var ErrNotFound = errors.New("audit entry not found")
