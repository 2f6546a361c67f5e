package jobs

// Status is a job's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// validTransitions is the closed set of legal lifecycle moves. A running job
// may return to pending (retry with a future scheduled_for); completed and
// failed are terminal.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusRunning},
	StatusRunning:   {StatusCompleted, StatusPending, StatusFailed},
	StatusCompleted: {},
	StatusFailed:    {},
}

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
