package brands

import "context"

// Repo defines persistence operations for brands.
type Repo interface {
	Create(ctx context.Context, b Brand) error
	GetByID(ctx context.Context, id string) (Brand, error)
	ListByProject(ctx context.Context, projectID string) ([]Brand, error)
	// GetPrimaryForProject returns the project's first-created brand.
	GetPrimaryForProject(ctx context.Context, projectID string) (Brand, error)
}

// CompetitorsRepo defines persistence operations for competitors.
type CompetitorsRepo interface {
	Create(ctx context.Context, c Competitor) error
	GetByID(ctx context.Context, id string) (Competitor, error)
	ListByProject(ctx context.Context, projectID string) ([]Competitor, error)
}
