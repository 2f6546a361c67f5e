package brands

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Brand // projectID -> brands in creation order
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string][]Brand)}
}

// Create stores a new brand.
func (r *MemoryRepo) Create(ctx context.Context, b Brand) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[b.ProjectID] = append(r.data[b.ProjectID], b)
	return nil
}

// GetByID returns a brand by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Brand, error) {
	if err := ctx.Err(); err != nil {
		return Brand{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, list := range r.data {
		for i := range list {
			if list[i].ID == id {
				return list[i], nil
			}
		}
	}
	return Brand{}, ErrNotFound
}

// ListByProject returns a project's brands in creation order.
func (r *MemoryRepo) ListByProject(ctx context.Context, projectID string) ([]Brand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.data[projectID]
	out := make([]Brand, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// GetPrimaryForProject returns the first-created brand for a project.
func (r *MemoryRepo) GetPrimaryForProject(ctx context.Context, projectID string) (Brand, error) {
	list, err := r.ListByProject(ctx, projectID)
	if err != nil {
		return Brand{}, err
	}
	if len(list) == 0 {
		return Brand{}, ErrNotFound
	}
	return list[0], nil
}

var _ Repo = (*MemoryRepo)(nil)

// MemoryCompetitorsRepo is an in-memory implementation of CompetitorsRepo.
type MemoryCompetitorsRepo struct {
	mu   sync.RWMutex
	data map[string][]Competitor
}

// NewMemoryCompetitorsRepo constructs a MemoryCompetitorsRepo.
func NewMemoryCompetitorsRepo() *MemoryCompetitorsRepo {
	return &MemoryCompetitorsRepo{data: make(map[string][]Competitor)}
}

// Create stores a new competitor.
func (r *MemoryCompetitorsRepo) Create(ctx context.Context, c Competitor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[c.ProjectID] = append(r.data[c.ProjectID], c)
	return nil
}

// GetByID returns a competitor by ID.
func (r *MemoryCompetitorsRepo) GetByID(ctx context.Context, id string) (Competitor, error) {
	if err := ctx.Err(); err != nil {
		return Competitor{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, list := range r.data {
		for i := range list {
			if list[i].ID == id {
				return list[i], nil
			}
		}
	}
	return Competitor{}, ErrNotFound
}

// ListByProject returns a project's competitors in creation order.
func (r *MemoryCompetitorsRepo) ListByProject(ctx context.Context, projectID string) ([]Competitor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.data[projectID]
	out := make([]Competitor, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

var _ CompetitorsRepo = (*MemoryCompetitorsRepo)(nil)
