package scoring

import "context"

// Repo defines persistence operations for scores.
type Repo interface {
	Create(ctx context.Context, s Score) error
	GetByRun(ctx context.Context, runID string) (Score, error)
	ListByProject(ctx context.Context, projectID string, limit, offset int) ([]Score, error)
	ListByBrand(ctx context.Context, brandID string, limit, offset int) ([]Score, error)
}
