package jobs

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested job does not exist.
var ErrNotFound = errors.New("job not found")

// InvalidTransitionError reports an attempted illegal lifecycle move, e.g.
// completing a job that was never marked running.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid job transition %s->%s", e.From, e.To)
}
