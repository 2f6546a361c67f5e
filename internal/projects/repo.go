package projects

import "context"

// Repo defines persistence operations for projects.
type Repo interface {
	Create(ctx context.Context, p Project) error
	GetByID(ctx context.Context, id string) (Project, error)
	ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]Project, error)
	CountByOrg(ctx context.Context, orgID string) (int, error)
	UpdateBudgets(ctx context.Context, id string, soft, hard *float64) (Project, error)
	// AddUsage increments the running monthly spend. When the stored usage
	// month differs from month, the counter restarts at cost.
	AddUsage(ctx context.Context, id string, cost float64, month string) error
}
