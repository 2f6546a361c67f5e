package orgs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Organization
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Organization)}
}

// Create stores a new organization.
func (r *MemoryRepo) Create(ctx context.Context, org Organization) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[org.ID] = org
	return nil
}

// GetByID returns an organization by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Organization, error) {
	if err := ctx.Err(); err != nil {
		return Organization{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	org, ok := r.data[id]
	if !ok {
		return Organization{}, ErrNotFound
	}
	return org, nil
}

// Update applies partial updates to an organization.
func (r *MemoryRepo) Update(ctx context.Context, id string, name, tier *string) (Organization, error) {
	if err := ctx.Err(); err != nil {
		return Organization{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	org, ok := r.data[id]
	if !ok {
		return Organization{}, ErrNotFound
	}
	if name != nil {
		org.Name = *name
	}
	if tier != nil {
		org.SubscriptionTier = *tier
	}
	org.UpdatedAt = time.Now().UTC()
	r.data[id] = org
	return org, nil
}

// List returns organizations, newest first, honoring limit/offset.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Organization, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	all := make([]Organization, 0, len(r.data))
	for _, org := range r.data {
		all = append(all, org)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []Organization{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

var _ Repo = (*MemoryRepo)(nil)
