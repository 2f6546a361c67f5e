package audit

import "context"

// Repo defines persistence operations for audit entries.
type Repo interface {
	Create(ctx context.Context, e Entry) error
	ListByProject(ctx context.Context, projectID string, limit, offset int) ([]Entry, error)
	ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]Entry, error)
}
