package usage

import "errors"

// ErrLimitReached indicates the organization exceeded its monthly run limit.
var ErrLimitReached = errors.New("limit reached")
