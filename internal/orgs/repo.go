package orgs

import "context"

// Repo defines persistence operations for organizations.
type Repo interface {
	Create(ctx context.Context, org Organization) error
	GetByID(ctx context.Context, id string) (Organization, error)
	Update(ctx context.Context, id string, name, tier *string) (Organization, error)
	List(ctx context.Context, limit, offset int) ([]Organization, error)
}
