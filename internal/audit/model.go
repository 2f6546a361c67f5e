package audit

import "time"

// Well-known actions.
const (
	ActionBudgetSkip    = "budget_skip"
	ActionBudgetWarning = "budget_warning"
	ActionRunCompleted  = "run_completed"
	ActionRunFailed     = "run_failed"
)

// MsgHardBudgetReached is logged when a prompt is skipped at enqueue time
// because its project already met or exceeded the hard monthly budget.
const MsgHardBudgetReached = "Hard budget limit reached"

// MsgSoftBudgetCrossed is logged once when a project's usage first crosses
// its soft monthly budget.
const MsgSoftBudgetCrossed = "Soft budget limit crossed"

// Entry is one audit-log record.
type Entry struct {
	ID             string
	OrganizationID string
	ProjectID      string
	Actor          string
	Action         string
	Message        string
	Metadata       map[string]any
	CreatedAt      time.Time
}
